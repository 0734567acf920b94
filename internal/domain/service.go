package domain

import (
	"context"
	"io"
)

type IngestService interface {
	Upload(ctx context.Context, filename string, mimeType string, size int64, reader io.Reader) (*ImageAsset, *DerivedAsset, error)
}

type AnalysisService interface {
	Process(ctx context.Context, imageID string) (*AnalysisRecord, error)
	Retrieve(ctx context.Context, imageID string) (*AnalysisRecord, error)
	OpenAsset(ctx context.Context, storagePath string) (io.ReadCloser, error)
}

// VisionAnalyzer sends the stored image to the external vision model and
// normalizes its free-text response. The call is blocking external I/O; the
// caller bounds it with a context deadline. No retries happen here.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, asset *ImageAsset, raw []byte) (*RawAnalysis, error)
}

// ElementDeriver produces the derived raster assets referenced by a record
// and attaches their retrieval URLs to the element descriptors.
type ElementDeriver interface {
	Derive(ctx context.Context, asset *ImageAsset, analysis *RawAnalysis) (map[string][]Element, error)
}

package domain

import "context"

// AnalysisRepository is the single source of truth for analysis records.
// Implementations must serialize mutations per key and keep the pending ->
// ready|failed transition monotonic; Get returns a detached copy.
type AnalysisRepository interface {
	Create(ctx context.Context, imageID string) error
	Complete(ctx context.Context, imageID string, result AnalysisResult) (*AnalysisRecord, error)
	Fail(ctx context.Context, imageID string, code, message string) (*AnalysisRecord, error)
	Get(ctx context.Context, imageID string) (*AnalysisRecord, error)
}

// AssetRepository tracks uploaded originals so process() can resolve an
// imageId back to its stored bytes.
type AssetRepository interface {
	Save(ctx context.Context, asset *ImageAsset) error
	FindByID(ctx context.Context, id string) (*ImageAsset, error)
}

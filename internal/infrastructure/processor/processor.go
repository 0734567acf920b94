package processor

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/config"
)

// ImageProcessor wraps the raster operations of the pipeline: bounded
// thumbnails at ingest time and the lossless background re-encode the
// deriver publishes for every analyzed image.
type ImageProcessor struct {
	cfg *config.ProcessingConfig
}

func NewImageProcessor(cfg *config.ProcessingConfig) *ImageProcessor {
	if cfg.ThumbnailMaxSide <= 0 {
		zlog.Logger.Warn().
			Int("thumbnail_max_side", cfg.ThumbnailMaxSide).
			Msg("Invalid thumbnail side, using default")
		cfg.ThumbnailMaxSide = 300
	}
	return &ImageProcessor{cfg: cfg}
}

func (p *ImageProcessor) Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("decoded image is empty")
	}
	return img, nil
}

// Thumbnail fits the image into the configured bounding box preserving
// aspect ratio. imaging.Fit never upscales, so small originals pass through
// at their native size.
func (p *ImageProcessor) Thumbnail(img image.Image, mimeType string) (*bytes.Buffer, error) {
	side := p.cfg.ThumbnailMaxSide
	thumb := imaging.Fit(img, side, side, imaging.Lanczos)
	if thumb.Bounds().Dx() == 0 || thumb.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("thumbnail is empty")
	}

	format, err := formatForMime(mimeType)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("empty buffer after encoding thumbnail")
	}

	zlog.Logger.Info().
		Int("width", thumb.Bounds().Dx()).
		Int("height", thumb.Bounds().Dy()).
		Str("mime_type", mimeType).
		Msg("thumbnail generated")

	return &buf, nil
}

// BackgroundPNG re-encodes the full image losslessly. The background element
// is always produced as a normalized baseline, not a detected region.
func (p *ImageProcessor) BackgroundPNG(img image.Image) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode background png: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("empty buffer after encoding background")
	}
	return &buf, nil
}

func GetImageDimensions(img image.Image) (width, height int) {
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}

func formatForMime(mimeType string) (imaging.Format, error) {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return imaging.JPEG, nil
	case "image/png":
		return imaging.PNG, nil
	case "image/gif":
		return imaging.GIF, nil
	default:
		return imaging.PNG, fmt.Errorf("unsupported mime type: %s", mimeType)
	}
}

// ExtForMime returns the canonical file extension used when persisting an
// asset of the given mime type.
func ExtForMime(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

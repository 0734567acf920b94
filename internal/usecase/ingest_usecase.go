package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/domain"
	"github.com/templify/templify/internal/infrastructure/processor"
	"github.com/templify/templify/internal/infrastructure/storage"
)

type IngestUsecase struct {
	assets       domain.AssetRepository
	storage      storage.Storage
	processor    *processor.ImageProcessor
	maxSizeBytes int64
	allowedMime  map[string]struct{}
}

func NewIngestUsecase(
	assets domain.AssetRepository,
	store storage.Storage,
	proc *processor.ImageProcessor,
	maxSizeBytes int64,
	allowedMimeTypes []string,
) *IngestUsecase {
	allowed := make(map[string]struct{}, len(allowedMimeTypes))
	for _, m := range allowedMimeTypes {
		allowed[strings.ToLower(m)] = struct{}{}
	}
	return &IngestUsecase{
		assets:       assets,
		storage:      store,
		processor:    proc,
		maxSizeBytes: maxSizeBytes,
		allowedMime:  allowed,
	}
}

// Upload validates and persists an incoming image, then synchronously
// produces its thumbnail. Validation failures happen before any storage
// write. A thumbnail failure is surfaced, but the stored original is kept:
// the partial success is deliberately visible.
func (u *IngestUsecase) Upload(
	ctx context.Context,
	filename string,
	mimeType string,
	size int64,
	reader io.Reader,
) (*domain.ImageAsset, *domain.DerivedAsset, error) {
	mime := normalizeMime(mimeType)
	if _, ok := u.allowedMime[mime]; !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrInvalidMediaType, mimeType)
	}
	if size > u.maxSizeBytes {
		return nil, nil, fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrPayloadTooLarge, size, u.maxSizeBytes)
	}

	// Читаем с запасом в один байт: заявленный размер может врать.
	data, err := io.ReadAll(io.LimitReader(reader, u.maxSizeBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxSizeBytes {
		return nil, nil, fmt.Errorf("%w: payload exceeds %d bytes", domain.ErrPayloadTooLarge, u.maxSizeBytes)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidMediaType)
	}

	imageID := uuid.New().String()
	ext := processor.ExtForMime(mime)

	originalPath, err := u.storage.SaveOriginal(ctx, imageID+ext, bytes.NewReader(data))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("filename", filename).Msg("failed to save original file")
		return nil, nil, fmt.Errorf("save original: %w", err)
	}

	asset := &domain.ImageAsset{
		ID:               imageID,
		OriginalFilename: filename,
		MimeType:         mime,
		Size:             int64(len(data)),
		StoragePath:      originalPath,
		UploadedAt:       time.Now(),
	}
	if err := u.assets.Save(ctx, asset); err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("failed to register asset")
		return nil, nil, fmt.Errorf("register asset: %w", err)
	}

	thumb, err := u.generateThumbnail(ctx, asset, data)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("thumbnail generation failed, original kept")
		return asset, nil, fmt.Errorf("%w: %v", domain.ErrArtifactProcessing, err)
	}

	zlog.Logger.Info().
		Str("image_id", imageID).
		Str("filename", filename).
		Str("mime_type", mime).
		Int64("size", asset.Size).
		Msg("image uploaded")

	return asset, thumb, nil
}

func (u *IngestUsecase) generateThumbnail(ctx context.Context, asset *domain.ImageAsset, data []byte) (*domain.DerivedAsset, error) {
	img, err := u.processor.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	width, height := processor.GetImageDimensions(img)
	zlog.Logger.Debug().
		Str("image_id", asset.ID).
		Int("width", width).
		Int("height", height).
		Msg("original decoded")

	buf, err := u.processor.Thumbnail(img, asset.MimeType)
	if err != nil {
		return nil, err
	}

	ext := processor.ExtForMime(asset.MimeType)
	path, err := u.storage.SaveDerived(ctx, "thumb_"+asset.ID+ext, buf)
	if err != nil {
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	return &domain.DerivedAsset{
		Kind:        domain.DerivedThumbnail,
		ParentID:    asset.ID,
		StoragePath: path,
		Format:      strings.TrimPrefix(ext, "."),
	}, nil
}

func normalizeMime(mimeType string) string {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

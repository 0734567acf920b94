package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/domain"
	"github.com/templify/templify/internal/infrastructure/storage"
)

// AnalysisUsecase drives the Uploaded -> Processing -> Ready|Failed state
// machine. Process is synchronous: the caller blocks until a terminal state
// is committed. Creating the pending record is the serialization point —
// concurrent Process calls for one image race on Create and exactly one wins.
type AnalysisUsecase struct {
	assets   domain.AssetRepository
	records  domain.AnalysisRepository
	storage  storage.Storage
	analyzer domain.VisionAnalyzer
	deriver  domain.ElementDeriver
}

func NewAnalysisUsecase(
	assets domain.AssetRepository,
	records domain.AnalysisRepository,
	store storage.Storage,
	analyzer domain.VisionAnalyzer,
	deriver domain.ElementDeriver,
) *AnalysisUsecase {
	return &AnalysisUsecase{
		assets:   assets,
		records:  records,
		storage:  store,
		analyzer: analyzer,
		deriver:  deriver,
	}
}

func (u *AnalysisUsecase) Process(ctx context.Context, imageID string) (*domain.AnalysisRecord, error) {
	asset, err := u.assets.FindByID(ctx, imageID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	if err := u.records.Create(ctx, imageID); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, u.transitionError(ctx, imageID)
		}
		return nil, fmt.Errorf("create record: %w", err)
	}

	zlog.Logger.Info().Str("image_id", imageID).Msg("processing started")

	raw, err := u.readOriginal(ctx, asset)
	if err != nil {
		return nil, u.fail(ctx, imageID, fmt.Errorf("%w: %v", domain.ErrArtifactProcessing, err))
	}

	analysis, err := u.analyzer.Analyze(ctx, asset, raw)
	if err != nil {
		return nil, u.fail(ctx, imageID, err)
	}

	elements, err := u.deriver.Derive(ctx, asset, analysis)
	if err != nil {
		return nil, u.fail(ctx, imageID, err)
	}

	record, err := u.records.Complete(ctx, imageID, domain.AnalysisResult{
		Elements:         elements,
		Fonts:            analysis.Fonts,
		Colors:           analysis.Colors,
		OriginalImageURL: AssetURL(asset.StoragePath),
	})
	if err != nil {
		return nil, fmt.Errorf("commit record: %w", err)
	}

	zlog.Logger.Info().
		Str("image_id", imageID).
		Int("fonts", len(record.Fonts)).
		Int("colors", len(record.Colors)).
		Msg("processing completed")

	return record, nil
}

func (u *AnalysisUsecase) Retrieve(ctx context.Context, imageID string) (*domain.AnalysisRecord, error) {
	return u.records.Get(ctx, imageID)
}

func (u *AnalysisUsecase) OpenAsset(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	rc, err := u.storage.Get(ctx, storagePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

func (u *AnalysisUsecase) readOriginal(ctx context.Context, asset *domain.ImageAsset) ([]byte, error) {
	rc, err := u.storage.Get(ctx, asset.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open original: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}
	return data, nil
}

// fail records the pipeline error before surfacing it, so the failure stays
// visible to later Retrieve calls, not just to the original caller.
func (u *AnalysisUsecase) fail(ctx context.Context, imageID string, cause error) error {
	if _, err := u.records.Fail(ctx, imageID, domain.ErrorCode(cause), cause.Error()); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("image_id", imageID).
			Msg("failed to record pipeline failure")
	}
	return cause
}

// transitionError distinguishes a lost Create race: a terminal record means
// AlreadyTerminal, an in-flight one means InvalidTransition.
func (u *AnalysisUsecase) transitionError(ctx context.Context, imageID string) error {
	record, err := u.records.Get(ctx, imageID)
	if err == nil && record.IsTerminal() {
		return domain.ErrAlreadyTerminal
	}
	return domain.ErrInvalidTransition
}

package usecase

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/domain"
	"github.com/templify/templify/internal/infrastructure/processor"
	"github.com/templify/templify/internal/infrastructure/storage"
)

// элементные категории всегда присутствуют в готовой записи
var elementCategories = []string{"text", "background", "graphics", "hero"}

// DeriverUsecase produces the derived raster assets a record points at.
// The background is always a lossless re-encode of the full original — a
// normalized baseline, not a detected region. Text, graphics and hero
// descriptors pass through without generated crops: the model is not
// trusted to supply pixel regions, and no bounding-box contract exists yet.
type DeriverUsecase struct {
	storage   storage.Storage
	processor *processor.ImageProcessor
}

func NewDeriverUsecase(store storage.Storage, proc *processor.ImageProcessor) *DeriverUsecase {
	return &DeriverUsecase{
		storage:   store,
		processor: proc,
	}
}

func (u *DeriverUsecase) Derive(ctx context.Context, asset *domain.ImageAsset, analysis *domain.RawAnalysis) (map[string][]domain.Element, error) {
	original, err := u.storage.Get(ctx, asset.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open original: %v", domain.ErrArtifactProcessing, err)
	}
	defer original.Close()

	img, err := u.processor.Decode(original)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArtifactProcessing, err)
	}

	buf, err := u.processor.BackgroundPNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArtifactProcessing, err)
	}

	bgPath, err := u.storage.SaveDerived(ctx, asset.ID+"_background.png", buf)
	if err != nil {
		return nil, fmt.Errorf("%w: save background: %v", domain.ErrArtifactProcessing, err)
	}

	elements := make(map[string][]domain.Element, len(elementCategories))
	for _, category := range elementCategories {
		elements[category] = []domain.Element{}
	}
	for category, items := range analysis.Elements {
		if category == "background" {
			// the derived baseline replaces model-described backgrounds
			continue
		}
		if _, ok := elements[category]; !ok {
			continue
		}
		elements[category] = append(elements[category], items...)
	}

	elements["background"] = []domain.Element{{
		URL:    AssetURL(bgPath),
		Type:   "background",
		Format: "png",
	}}

	zlog.Logger.Info().
		Str("image_id", asset.ID).
		Str("background_path", bgPath).
		Msg("derived assets generated")

	return elements, nil
}

// AssetURL mints the public retrieval URL for a storage-relative path.
// Record URLs are built here and nowhere else; the model never dictates one.
func AssetURL(storagePath string) string {
	return "/uploads/" + storagePath
}

package memory

import (
	"context"
	"sync"

	"github.com/templify/templify/internal/domain"
)

// AssetRepository maps image identifiers to their stored originals. Assets
// are single-assignment: uuid allocation makes key reuse practically
// impossible, so Save never overwrites under correct operation.
type AssetRepository struct {
	mu     sync.RWMutex
	assets map[string]domain.ImageAsset
}

func NewAssetRepository() *AssetRepository {
	return &AssetRepository{
		assets: make(map[string]domain.ImageAsset),
	}
}

func (r *AssetRepository) Save(ctx context.Context, asset *domain.ImageAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[asset.ID]; ok {
		return domain.ErrDuplicateKey
	}
	r.assets[asset.ID] = *asset
	return nil
}

func (r *AssetRepository) FindByID(ctx context.Context, id string) (*domain.ImageAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &asset, nil
}

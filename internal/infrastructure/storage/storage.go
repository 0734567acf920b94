package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage is the artifact store for originals and derived assets. Save
// methods return storage-relative paths ("original/<file>", "derived/<file>")
// that double as the public /uploads/ URL suffix.
type Storage interface {
	SaveOriginal(ctx context.Context, filename string, reader io.Reader) (string, error)
	SaveDerived(ctx context.Context, filename string, reader io.Reader) (string, error)
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}

func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "local":
		zlog.Logger.Info().Msg("Initializing local storage")
		return NewLocalStorage(cfg)
	case "s3":
		zlog.Logger.Info().Msg("Initializing S3 storage")
		return NewS3Storage(cfg)
	default:
		zlog.Logger.Error().Str("type", cfg.Type).Msg("Unsupported storage type, use 'local' or 's3'")
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

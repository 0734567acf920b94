package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/config"
)

type localStorage struct {
	basePath    string
	originalDir string
	derivedDir  string
}

func NewLocalStorage(cfg *config.StorageConfig) (Storage, error) {
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("LocalPath is empty, set storage.local_path in config or env")
	}
	if cfg.OriginalDir == "" {
		cfg.OriginalDir = "original"
	}
	if cfg.DerivedDir == "" {
		cfg.DerivedDir = "derived"
	}

	storage := &localStorage{
		basePath:    cfg.LocalPath,
		originalDir: cfg.OriginalDir,
		derivedDir:  cfg.DerivedDir,
	}

	// MkdirAll не падает, если каталог уже создан конкурентным вызовом
	if err := storage.ensureDirs(); err != nil {
		return nil, err
	}

	return storage, nil
}

func (s *localStorage) ensureDirs() error {
	for _, dir := range []string{s.originalDir, s.derivedDir} {
		if err := os.MkdirAll(filepath.Join(s.basePath, dir), 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return nil
}

func (s *localStorage) SaveOriginal(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return s.saveFile(ctx, s.originalDir, filename, reader)
}

func (s *localStorage) SaveDerived(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return s.saveFile(ctx, s.derivedDir, filename, reader)
}

func (s *localStorage) saveFile(ctx context.Context, dir, filename string, reader io.Reader) (string, error) {
	if reader == nil {
		zlog.Logger.Error().Str("filename", filename).Msg("reader is nil")
		return "", fmt.Errorf("reader is nil")
	}

	if err := os.MkdirAll(filepath.Join(s.basePath, dir), 0755); err != nil {
		return "", fmt.Errorf("ensure dir %s: %w", dir, err)
	}

	fullPath := filepath.Join(s.basePath, dir, filename)

	file, err := os.Create(fullPath)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create file")
		return "", fmt.Errorf("create file %s: %w", fullPath, err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to write file")
		return "", fmt.Errorf("write file %s: %w", fullPath, err)
	}
	if written == 0 {
		zlog.Logger.Error().Str("path", fullPath).Msg("no bytes written to file")
		return "", fmt.Errorf("no bytes written to file %s", fullPath)
	}

	relativePath := filepath.ToSlash(filepath.Join(dir, filename))
	zlog.Logger.Info().
		Str("path", relativePath).
		Int64("bytes", written).
		Msg("file saved")

	return relativePath, nil
}

func (s *localStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(path))

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to open file")
		return nil, fmt.Errorf("open file %s: %w", fullPath, err)
	}

	return file, nil
}

func (s *localStorage) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(path))
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file %s: %w", fullPath, err)
	}
	return true, nil
}

func (s *localStorage) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(path))

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Warn().Str("path", fullPath).Msg("file not found, skipping delete")
			return nil
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to delete file")
		return fmt.Errorf("delete file %s: %w", fullPath, err)
	}

	zlog.Logger.Info().Str("path", path).Msg("file deleted")
	return nil
}

package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/domain"
	"github.com/templify/templify/internal/infrastructure/storage"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

// fakeStorage is an in-memory Storage double.
type fakeStorage struct {
	mu              sync.Mutex
	objects         map[string][]byte
	failSaveDerived bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) SaveOriginal(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return s.save("original/"+filename, reader)
}

func (s *fakeStorage) SaveDerived(ctx context.Context, filename string, reader io.Reader) (string, error) {
	if s.failSaveDerived {
		return "", fmt.Errorf("disk full")
	}
	return s.save("derived/"+filename, reader)
}

func (s *fakeStorage) save(path string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return path, nil
}

func (s *fakeStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok, nil
}

func (s *fakeStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *fakeStorage) object(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	return data, ok
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// stubAnalyzer returns a fixed analysis or error without touching the model.
type stubAnalyzer struct {
	analysis *domain.RawAnalysis
	err      error
	calls    int
	mu       sync.Mutex
}

func (a *stubAnalyzer) Analyze(ctx context.Context, asset *domain.ImageAsset, raw []byte) (*domain.RawAnalysis, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.analysis, nil
}

func (a *stubAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/domain"
)

type recordEntry struct {
	mu     sync.Mutex
	record domain.AnalysisRecord
}

// AnalysisRepository keeps analysis records in process memory. The outer
// RWMutex guards the key map, each entry carries its own mutex, so writers
// on one image never block readers or writers of another.
type AnalysisRepository struct {
	mu      sync.RWMutex
	records map[string]*recordEntry
}

func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{
		records: make(map[string]*recordEntry),
	}
}

func (r *AnalysisRepository) Create(ctx context.Context, imageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[imageID]; ok {
		return domain.ErrDuplicateKey
	}

	now := time.Now()
	r.records[imageID] = &recordEntry{
		record: domain.AnalysisRecord{
			ImageID:   imageID,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	zlog.Logger.Info().Str("image_id", imageID).Msg("analysis record created")
	return nil
}

func (r *AnalysisRepository) Complete(ctx context.Context, imageID string, result domain.AnalysisResult) (*domain.AnalysisRecord, error) {
	entry, err := r.lookup(imageID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.record.IsTerminal() {
		return nil, domain.ErrAlreadyTerminal
	}

	now := time.Now()
	entry.record.Status = domain.StatusReady
	entry.record.Elements = result.Elements
	entry.record.Fonts = result.Fonts
	entry.record.Colors = result.Colors
	entry.record.OriginalImageURL = result.OriginalImageURL
	entry.record.UpdatedAt = now
	entry.record.CompletedAt = &now

	zlog.Logger.Info().Str("image_id", imageID).Msg("analysis record completed")
	rec := copyRecord(&entry.record)
	return &rec, nil
}

func (r *AnalysisRepository) Fail(ctx context.Context, imageID string, code, message string) (*domain.AnalysisRecord, error) {
	entry, err := r.lookup(imageID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.record.IsTerminal() {
		return nil, domain.ErrAlreadyTerminal
	}

	now := time.Now()
	entry.record.Status = domain.StatusFailed
	entry.record.ErrorCode = code
	entry.record.ErrorMessage = message
	entry.record.UpdatedAt = now
	entry.record.CompletedAt = &now

	zlog.Logger.Warn().
		Str("image_id", imageID).
		Str("error_code", code).
		Msg("analysis record failed")
	rec := copyRecord(&entry.record)
	return &rec, nil
}

func (r *AnalysisRepository) Get(ctx context.Context, imageID string) (*domain.AnalysisRecord, error) {
	entry, err := r.lookup(imageID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	rec := copyRecord(&entry.record)
	return &rec, nil
}

func (r *AnalysisRepository) lookup(imageID string) (*recordEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.records[imageID]
	if !ok {
		return nil, domain.ErrUnknownKey
	}
	return entry, nil
}

// copyRecord detaches the stored record: callers must never hold a live
// reference into the registry.
func copyRecord(rec *domain.AnalysisRecord) domain.AnalysisRecord {
	out := *rec

	if rec.Elements != nil {
		out.Elements = make(map[string][]domain.Element, len(rec.Elements))
		for k, v := range rec.Elements {
			items := make([]domain.Element, len(v))
			copy(items, v)
			out.Elements[k] = items
		}
	}
	if rec.Fonts != nil {
		out.Fonts = make([]domain.Font, len(rec.Fonts))
		copy(out.Fonts, rec.Fonts)
	}
	if rec.Colors != nil {
		out.Colors = make([]domain.Color, len(rec.Colors))
		copy(out.Colors, rec.Colors)
	}
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		out.CompletedAt = &t
	}

	return out
}

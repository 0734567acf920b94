package domain

import (
	"time"
)

type AnalysisStatus string

const (
	StatusPending AnalysisStatus = "pending"
	StatusReady   AnalysisStatus = "ready"
	StatusFailed  AnalysisStatus = "failed"
)

type DerivedKind string

const (
	DerivedThumbnail  DerivedKind = "thumbnail"
	DerivedBackground DerivedKind = "background"
	DerivedGraphic    DerivedKind = "graphic"
	DerivedHero       DerivedKind = "hero"
)

// ImageAsset — оригинал загрузки; после создания не изменяется.
type ImageAsset struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	StoragePath      string    `json:"storage_path"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

type DerivedAsset struct {
	Kind        DerivedKind `json:"kind"`
	ParentID    string      `json:"parent_id"`
	StoragePath string      `json:"storage_path"`
	Format      string      `json:"format"`
}

// Element is one detected or derived visual unit of the analyzed image.
// URL is always minted from our own storage, never taken from the model.
type Element struct {
	URL         string `json:"url,omitempty"`
	Type        string `json:"type"`
	Format      string `json:"format,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type FontSource struct {
	Provider string `json:"provider,omitempty"`
	URL      string `json:"url,omitempty"`
}

type Font struct {
	Name     string       `json:"name"`
	Category string       `json:"category,omitempty"`
	Style    string       `json:"style,omitempty"`
	Weight   string       `json:"weight,omitempty"`
	Sources  []FontSource `json:"sources,omitempty"`
	Import   string       `json:"import,omitempty"`
}

type Color struct {
	Hex  string `json:"hex"`
	RGB  string `json:"rgb,omitempty"`
	Name string `json:"name,omitempty"`
}

// RawAnalysis is the normalized payload extracted from the vision model
// response. Descriptive fields only: any asset the record points at is
// produced locally by the deriver.
type RawAnalysis struct {
	Elements map[string][]Element `json:"elements"`
	Fonts    []Font               `json:"fonts"`
	Colors   []Color              `json:"colors"`
}

// AnalysisRecord is the committed result of analyzing one ImageAsset.
// Status moves pending -> ready|failed exactly once and never reverts.
type AnalysisRecord struct {
	ImageID          string               `json:"image_id"`
	Status           AnalysisStatus       `json:"status"`
	Elements         map[string][]Element `json:"elements,omitempty"`
	Fonts            []Font               `json:"fonts,omitempty"`
	Colors           []Color              `json:"colors,omitempty"`
	OriginalImageURL string               `json:"original_image_url,omitempty"`
	ErrorCode        string               `json:"error_code,omitempty"`
	ErrorMessage     string               `json:"error_message,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
}

func (r *AnalysisRecord) IsTerminal() bool {
	return r.Status == StatusReady || r.Status == StatusFailed
}

func (r *AnalysisRecord) IsReady() bool {
	return r.Status == StatusReady
}

func (r *AnalysisRecord) IsFailed() bool {
	return r.Status == StatusFailed
}

// AnalysisResult carries the fields committed on a ready transition.
type AnalysisResult struct {
	Elements         map[string][]Element
	Fonts            []Font
	Colors           []Color
	OriginalImageURL string
}

package dto

import (
	"time"

	"github.com/templify/templify/internal/domain"
)

type UploadResponse struct {
	Status       string `json:"status"`
	ImageID      string `json:"imageId"`
	Message      string `json:"message,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type ProcessResponse struct {
	Status  string `json:"status"`
	ImageID string `json:"imageId"`
	Message string `json:"message,omitempty"`
}

type AnalysisData struct {
	Status        string                      `json:"status"`
	Elements      map[string][]domain.Element `json:"elements,omitempty"`
	Fonts         []domain.Font               `json:"fonts,omitempty"`
	Colors        []domain.Color              `json:"colors,omitempty"`
	OriginalImage string                      `json:"originalImage,omitempty"`
	ErrorCode     string                      `json:"errorCode,omitempty"`
	ErrorMessage  string                      `json:"errorMessage,omitempty"`
	CompletedAt   *time.Time                  `json:"completedAt,omitempty"`
}

type AnalysisResponse struct {
	Status string        `json:"status"`
	Data   *AnalysisData `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func MapRecordToResponse(record *domain.AnalysisRecord) *AnalysisResponse {
	if record == nil {
		return nil
	}

	status := "success"
	if record.IsFailed() {
		status = "error"
	}

	return &AnalysisResponse{
		Status: status,
		Data: &AnalysisData{
			Status:        string(record.Status),
			Elements:      record.Elements,
			Fonts:         record.Fonts,
			Colors:        record.Colors,
			OriginalImage: record.OriginalImageURL,
			ErrorCode:     record.ErrorCode,
			ErrorMessage:  record.ErrorMessage,
			CompletedAt:   record.CompletedAt,
		},
	}
}

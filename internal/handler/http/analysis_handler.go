package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/domain"
	"github.com/templify/templify/internal/dto"
	"github.com/templify/templify/internal/usecase"
)

type AnalysisHandler struct {
	ingest   domain.IngestService
	analysis domain.AnalysisService
}

func NewAnalysisHandler(ingest domain.IngestService, analysis domain.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		ingest:   ingest,
		analysis: analysis,
	}
}

func (h *AnalysisHandler) RegisterRoutes(engine *ginext.Engine) {
	api := engine.Group("/api")
	api.POST("/upload", h.UploadImage)
	api.POST("/process/:imageId", h.ProcessImage)
	api.GET("/analysis/:imageId", h.GetAnalysis)
	api.GET("/download/*elementId", h.DownloadElement)

	engine.GET("/uploads/*filepath", h.ServeUpload)
}

// UploadImage POST /api/upload
func (h *AnalysisHandler) UploadImage(c *ginext.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to get file from request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "No image file provided",
		})
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	asset, thumb, err := h.ingest.Upload(
		c.Request.Context(),
		header.Filename,
		mimeType,
		header.Size,
		file,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := dto.UploadResponse{
		Status:  "success",
		ImageID: asset.ID,
		Message: "Image uploaded successfully",
	}
	if thumb != nil {
		resp.ThumbnailURL = usecase.AssetURL(thumb.StoragePath)
	}

	c.JSON(http.StatusOK, resp)
}

// ProcessImage POST /api/process/:imageId
func (h *AnalysisHandler) ProcessImage(c *ginext.Context) {
	imageID := c.Param("imageId")
	if imageID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Image ID is required",
		})
		return
	}

	if _, err := h.analysis.Process(c.Request.Context(), imageID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProcessResponse{
		Status:  "success",
		ImageID: imageID,
		Message: "Image processed successfully",
	})
}

// GetAnalysis GET /api/analysis/:imageId
func (h *AnalysisHandler) GetAnalysis(c *ginext.Context) {
	imageID := c.Param("imageId")

	record, err := h.analysis.Retrieve(c.Request.Context(), imageID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// запись ещё pending — для клиента её нет
	if !record.IsTerminal() {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_ready",
			Message: "Analysis is not ready yet",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordToResponse(record))
}

// DownloadElement GET /api/download/*elementId
func (h *AnalysisHandler) DownloadElement(c *ginext.Context) {
	elementID := strings.TrimPrefix(c.Param("elementId"), "/")
	if elementID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Element ID is required",
		})
		return
	}

	h.streamAsset(c, elementID, "attachment")
}

// ServeUpload GET /uploads/*filepath
func (h *AnalysisHandler) ServeUpload(c *ginext.Context) {
	path := strings.TrimPrefix(c.Param("filepath"), "/")
	if path == "" {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "File not found",
		})
		return
	}

	h.streamAsset(c, path, "inline")
}

func (h *AnalysisHandler) streamAsset(c *ginext.Context, storagePath, disposition string) {
	// guard against traversal out of the storage root
	if strings.Contains(storagePath, "..") {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid asset path",
		})
		return
	}

	file, err := h.analysis.OpenAsset(c.Request.Context(), storagePath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: "Element not found",
			})
			return
		}
		zlog.Logger.Error().Err(err).Str("path", storagePath).Msg("failed to open asset")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to retrieve asset",
		})
		return
	}
	defer file.Close()

	filename := filepath.Base(storagePath)
	c.Header("Content-Type", contentTypeFor(filename))
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, filename))

	written, err := io.Copy(c.Writer, file)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("path", storagePath).
			Int64("bytes_written", written).
			Msg("failed to write asset to response")
	}
}

func (h *AnalysisHandler) respondError(c *ginext.Context, err error) {
	code := domain.ErrorCode(err)

	var status int
	switch {
	case errors.Is(err, domain.ErrInvalidMediaType), errors.Is(err, domain.ErrPayloadTooLarge):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownKey):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrAlreadyTerminal), errors.Is(err, domain.ErrDuplicateKey):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrModelUnavailable), errors.Is(err, domain.ErrModelMalformed):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		zlog.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/domain"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

type fakeIngest struct {
	asset *domain.ImageAsset
	thumb *domain.DerivedAsset
	err   error
}

func (f *fakeIngest) Upload(ctx context.Context, filename, mimeType string, size int64, reader io.Reader) (*domain.ImageAsset, *domain.DerivedAsset, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.asset, f.thumb, nil
}

type fakeAnalysis struct {
	processRecord *domain.AnalysisRecord
	processErr    error
	record        *domain.AnalysisRecord
	retrieveErr   error
	assets        map[string][]byte
}

func (f *fakeAnalysis) Process(ctx context.Context, imageID string) (*domain.AnalysisRecord, error) {
	if f.processErr != nil {
		return nil, f.processErr
	}
	return f.processRecord, nil
}

func (f *fakeAnalysis) Retrieve(ctx context.Context, imageID string) (*domain.AnalysisRecord, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	return f.record, nil
}

func (f *fakeAnalysis) OpenAsset(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	data, ok := f.assets[storagePath]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newTestEngine(ingest domain.IngestService, analysis domain.AnalysisService) *ginext.Engine {
	engine := ginext.New("test")
	NewAnalysisHandler(ingest, analysis).RegisterRoutes(engine)
	return engine
}

func multipartImage(t *testing.T, field, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func doRequest(engine *ginext.Engine, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestUploadSuccess(t *testing.T) {
	engine := newTestEngine(&fakeIngest{
		asset: &domain.ImageAsset{ID: "img-1", StoragePath: "original/img-1.png"},
		thumb: &domain.DerivedAsset{Kind: domain.DerivedThumbnail, ParentID: "img-1", StoragePath: "derived/thumb_img-1.png"},
	}, &fakeAnalysis{})

	body, contentType := multipartImage(t, "image", "banner.png", "image/png", []byte("png-bytes"))
	w := doRequest(engine, http.MethodPost, "/api/upload", body, contentType)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status       string `json:"status"`
		ImageID      string `json:"imageId"`
		ThumbnailURL string `json:"thumbnailUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "success" || resp.ImageID != "img-1" {
		t.Errorf("response = %+v", resp)
	}
	if resp.ThumbnailURL != "/uploads/derived/thumb_img-1.png" {
		t.Errorf("thumbnailUrl = %s", resp.ThumbnailURL)
	}
}

func TestUploadNoFile(t *testing.T) {
	engine := newTestEngine(&fakeIngest{}, &fakeAnalysis{})
	w := doRequest(engine, http.MethodPost, "/api/upload", bytes.NewReader(nil), "multipart/form-data; boundary=x")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid media type", domain.ErrInvalidMediaType, http.StatusBadRequest, "invalid_media_type"},
		{"payload too large", domain.ErrPayloadTooLarge, http.StatusBadRequest, "payload_too_large"},
		{"thumbnail failure", domain.ErrArtifactProcessing, http.StatusInternalServerError, "artifact_processing_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(&fakeIngest{err: tt.err}, &fakeAnalysis{})
			body, contentType := multipartImage(t, "image", "f.png", "image/png", []byte("x"))
			w := doRequest(engine, http.MethodPost, "/api/upload", body, contentType)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tt.wantCode {
				t.Errorf("error code = %s, want %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestProcessErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown image", domain.ErrNotFound, http.StatusNotFound},
		{"already terminal", domain.ErrAlreadyTerminal, http.StatusConflict},
		{"in flight", domain.ErrInvalidTransition, http.StatusConflict},
		{"model unavailable", domain.ErrModelUnavailable, http.StatusBadGateway},
		{"malformed response", domain.ErrModelMalformed, http.StatusBadGateway},
		{"derivation failure", domain.ErrArtifactProcessing, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(&fakeIngest{}, &fakeAnalysis{processErr: tt.err})
			w := doRequest(engine, http.MethodPost, "/api/process/img-1", nil, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestProcessSuccess(t *testing.T) {
	engine := newTestEngine(&fakeIngest{}, &fakeAnalysis{
		processRecord: &domain.AnalysisRecord{ImageID: "img-1", Status: domain.StatusReady},
	})

	w := doRequest(engine, http.MethodPost, "/api/process/img-1", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestGetAnalysisStates(t *testing.T) {
	ready := &domain.AnalysisRecord{
		ImageID: "img-1",
		Status:  domain.StatusReady,
		Colors:  []domain.Color{{Hex: "#112233", RGB: "17,34,51"}},
	}
	failed := &domain.AnalysisRecord{
		ImageID:   "img-1",
		Status:    domain.StatusFailed,
		ErrorCode: "model_unavailable",
	}
	pending := &domain.AnalysisRecord{ImageID: "img-1", Status: domain.StatusPending}

	t.Run("ready record returned", func(t *testing.T) {
		engine := newTestEngine(&fakeIngest{}, &fakeAnalysis{record: ready})
		w := doRequest(engine, http.MethodGet, "/api/analysis/img-1", nil, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var resp struct {
			Data struct {
				Colors []domain.Color `json:"colors"`
			} `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(resp.Data.Colors) != 1 || resp.Data.Colors[0].Hex != "#112233" {
			t.Errorf("colors = %+v", resp.Data.Colors)
		}
	})

	t.Run("failed record visible", func(t *testing.T) {
		engine := newTestEngine(&fakeIngest{}, &fakeAnalysis{record: failed})
		w := doRequest(engine, http.MethodGet, "/api/analysis/img-1", nil, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var resp struct {
			Status string `json:"status"`
			Data   struct {
				ErrorCode string `json:"errorCode"`
			} `json:"data"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Status != "error" || resp.Data.ErrorCode != "model_unavailable" {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("pending hidden", func(t *testing.T) {
		engine := newTestEngine(&fakeIngest{}, &fakeAnalysis{record: pending})
		w := doRequest(engine, http.MethodGet, "/api/analysis/img-1", nil, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		engine := newTestEngine(&fakeIngest{}, &fakeAnalysis{retrieveErr: domain.ErrNotFound})
		w := doRequest(engine, http.MethodGet, "/api/analysis/img-1", nil, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}

func TestDownloadElement(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	analysis := &fakeAnalysis{assets: map[string][]byte{
		"derived/img-1_background.png": payload,
	}}
	engine := newTestEngine(&fakeIngest{}, analysis)

	t.Run("existing element streamed", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/download/derived/img-1_background.png", nil, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !bytes.Equal(w.Body.Bytes(), payload) {
			t.Error("streamed bytes differ from stored asset")
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("content-type = %s", ct)
		}
		if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename=img-1_background.png" {
			t.Errorf("content-disposition = %s", cd)
		}
	})

	t.Run("missing element", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/download/derived/nope.png", nil, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("traversal rejected", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/download/..%2F..%2Fetc%2Fpasswd", nil, "")
		if w.Code != http.StatusBadRequest && w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want rejection", w.Code)
		}
	})
}

func TestServeUpload(t *testing.T) {
	payload := []byte("image bytes")
	analysis := &fakeAnalysis{assets: map[string][]byte{
		"original/img-1.png": payload,
	}}
	engine := newTestEngine(&fakeIngest{}, analysis)

	w := doRequest(engine, http.MethodGet, "/uploads/original/img-1.png", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), payload) {
		t.Error("streamed bytes differ from stored asset")
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "inline; filename=img-1.png" {
		t.Errorf("content-disposition = %s", cd)
	}
}

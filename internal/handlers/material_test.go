package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"concurseiro-backend/internal/middleware"
	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/services"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func newUploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to build multipart body: %v", err)
	}
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/materials/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not an error envelope: %v", err)
	}
	return resp
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	h := NewMaterialHandler(nil, nil, nil, nil, t.TempDir(), 10)

	req := newUploadRequest(t, "foto.png", pngHeader)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}

	resp := decodeError(t, rec)
	if !strings.Contains(resp.Error.Message, "PDF") {
		t.Errorf("Expected error message to mention PDF, got %q", resp.Error.Message)
	}
}

func TestUpload_ShortPDFPassesSniff(t *testing.T) {
	// Fewer than 512 bytes must not trip the magic-byte sniff. The stub
	// is not a parseable PDF, so the handler rejects it later with the
	// readability error rather than the MIME one.
	h := NewMaterialHandler(nil, nil, services.NewExtractService(), nil, t.TempDir(), 10)

	req := newUploadRequest(t, "curto.pdf", []byte("%PDF-1.4\n%%EOF"))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}

	resp := decodeError(t, rec)
	if strings.Contains(resp.Error.Message, "Only PDF files") {
		t.Errorf("Short PDF was rejected by the MIME sniff: %q", resp.Error.Message)
	}
	if !strings.Contains(resp.Error.Message, "readable PDF") {
		t.Errorf("Expected readability error, got %q", resp.Error.Message)
	}
}

func TestUpload_RejectsMissingFile(t *testing.T) {
	h := NewMaterialHandler(nil, nil, nil, nil, t.TempDir(), 10)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/materials/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func serveFileRouter(h *MaterialHandler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Get("/files/{userID}/{filename}", h.ServeFile)
	return r
}

func TestServeFile_OwnerMismatch(t *testing.T) {
	h := NewMaterialHandler(nil, nil, nil, nil, t.TempDir(), 10)

	authenticated := uuid.New()
	other := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/files/"+other.String()+"/arquivo.pdf", nil)
	rec := httptest.NewRecorder()

	serveFileRouter(h, authenticated).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Error.Code != "FORBIDDEN" {
		t.Errorf("Expected FORBIDDEN code, got %q", resp.Error.Code)
	}
}

func TestServeFile_PathTraversalBlocked(t *testing.T) {
	h := NewMaterialHandler(nil, nil, nil, nil, t.TempDir(), 10)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/files/"+userID.String()+"/..%2Fsecret.pdf", nil)
	rec := httptest.NewRecorder()

	serveFileRouter(h, userID).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
		t.Fatalf("Expected rejection, got %d", rec.Code)
	}
}

func TestServeFile_OwnerGetsFile(t *testing.T) {
	storage := t.TempDir()
	h := NewMaterialHandler(nil, nil, nil, nil, storage, 10)
	userID := uuid.New()

	userDir := filepath.Join(storage, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(userDir, "material.pdf"), []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/files/"+userID.String()+"/material.pdf", nil)
	rec := httptest.NewRecorder()

	serveFileRouter(h, userID).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "%PDF-1.4") {
		t.Error("Expected stored file contents back")
	}
}

func TestServeFile_MissingFile(t *testing.T) {
	h := NewMaterialHandler(nil, nil, nil, nil, t.TempDir(), 10)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/files/"+userID.String()+"/nao-existe.pdf", nil)
	rec := httptest.NewRecorder()

	serveFileRouter(h, userID).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		filename string
		expected bool
	}{
		{"pdf mime", "application/pdf", "doc.pdf", true},
		{"octet stream with pdf extension", "application/octet-stream", "doc.PDF", true},
		{"octet stream without extension", "application/octet-stream", "doc.bin", false},
		{"png", "image/png", "foto.png", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isPDF(tc.mime, tc.filename); got != tc.expected {
				t.Errorf("Expected %v for %s/%s", tc.expected, tc.mime, tc.filename)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("../escape attempt.pdf"); got != "escape_attempt.pdf" {
		t.Errorf("Expected sanitized name, got %q", got)
	}
}

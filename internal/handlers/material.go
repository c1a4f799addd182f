package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"concurseiro-backend/internal/middleware"
	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/repository"
	"concurseiro-backend/internal/services"
)

type MaterialHandler struct {
	materials   *repository.MaterialRepo
	concursos   *repository.ConcursoRepo
	extract     *services.ExtractService
	youtube     *services.YouTubeService
	storagePath string
	maxUploadMB int
}

func NewMaterialHandler(
	materials *repository.MaterialRepo,
	concursos *repository.ConcursoRepo,
	extract *services.ExtractService,
	youtube *services.YouTubeService,
	storagePath string,
	maxUploadMB int,
) *MaterialHandler {
	return &MaterialHandler{
		materials:   materials,
		concursos:   concursos,
		extract:     extract,
		youtube:     youtube,
		storagePath: storagePath,
		maxUploadMB: maxUploadMB,
	}
}

// Upload receives a multipart PDF, stores it under the owner's
// directory with a timestamp prefix, counts its pages and creates the
// material record.
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.maxUploadMB) << 20
	if r.ContentLength > maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds %dMB limit", h.maxUploadMB), r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	// Magic-byte sniff on the first 512 bytes
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read uploaded file", r))
		return
	}
	mimeType := http.DetectContentType(buf[:n])
	if !isPDF(mimeType, header.Filename) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Only PDF files are accepted", r))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to read uploaded file", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	concursoID, err := h.parseConcursoID(r, userID, r.FormValue("concurso_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	userDir := filepath.Join(h.storagePath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to prepare storage", r))
		return
	}

	// Timestamp prefix keeps re-uploads of the same filename apart
	storedName := fmt.Sprintf("%d_%s", time.Now().Unix(), sanitizeFilename(header.Filename))
	storedPath := filepath.Join(userDir, storedName)

	dst, err := os.Create(storedPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(storedPath)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}
	dst.Close()

	totalPages, err := h.extract.CountPages(storedPath)
	if err != nil {
		os.Remove(storedPath)
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "File is not a readable PDF", r))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}

	material := &models.Material{
		UserID:     userID,
		ConcursoID: concursoID,
		Title:      title,
		Kind:       models.MaterialKindPDF,
		FilePath:   &storedPath,
		TotalPages: totalPages,
	}
	if err := h.materials.Create(r.Context(), material); err != nil {
		os.Remove(storedPath)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create material", r))
		return
	}

	writeJSON(w, http.StatusCreated, material)
}

// RegisterVideo creates a video material from a YouTube URL; duration
// in minutes stands in for the page total.
func (h *MaterialHandler) RegisterVideo(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	videoID, err := h.youtube.ParseVideoID(req.URL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid YouTube URL", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	var concursoIDStr string
	if req.ConcursoID != nil {
		concursoIDStr = *req.ConcursoID
	}
	concursoID, err := h.parseConcursoID(r, userID, concursoIDStr)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	title, durationMinutes, err := h.youtube.GetMetadata(r.Context(), videoID)
	if err != nil {
		title = "YouTube: " + videoID
	}

	material := &models.Material{
		UserID:     userID,
		ConcursoID: concursoID,
		Title:      title,
		Kind:       models.MaterialKindVideo,
		SourceURL:  &req.URL,
		TotalPages: durationMinutes,
	}
	if err := h.materials.Create(r.Context(), material); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create material", r))
		return
	}

	writeJSON(w, http.StatusCreated, material)
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	materials, err := h.materials.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list materials", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"materials": materials})
}

func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	material, ok := h.ownedMaterial(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, material)
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	material, ok := h.ownedMaterial(w, r)
	if !ok {
		return
	}

	if err := h.materials.Delete(r.Context(), material.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete material", r))
		return
	}
	if material.FilePath != nil {
		os.Remove(*material.FilePath)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Material deleted"})
}

// ServeFile streams an uploaded file back through an ownership check:
// the first path segment is the owning user's id and must match the
// authenticated user.
func (h *MaterialHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if ownerID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	filename := chi.URLParam(r, "filename")
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid file name", r))
		return
	}

	path := filepath.Join(h.storagePath, ownerID.String(), filename)
	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "File not found", r))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

func (h *MaterialHandler) ownedMaterial(w http.ResponseWriter, r *http.Request) (*models.Material, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid material ID", r))
		return nil, false
	}

	userID := middleware.GetUserID(r.Context())
	material, err := h.materials.GetOwned(r.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Material not found", r))
		case errors.Is(err, repository.ErrForbidden):
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load material", r))
		}
		return nil, false
	}
	return material, true
}

func (h *MaterialHandler) parseConcursoID(r *http.Request, userID uuid.UUID, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &services.ValidationError{Fields: map[string]string{"concurso_id": "Invalid concurso id"}}
	}
	if _, err := h.concursos.GetOwned(r.Context(), userID, id); err != nil {
		return nil, &services.NotFoundError{Message: "Concurso not found"}
	}
	return &id, nil
}

func isPDF(mimeType, filename string) bool {
	if mimeType == "application/pdf" {
		return true
	}
	// DetectContentType reports octet-stream for some valid PDFs
	if mimeType == "application/octet-stream" && strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return true
	}
	return false
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"concurseiro-backend/internal/middleware"
	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/repository"
)

type ConcursoHandler struct {
	concursos *repository.ConcursoRepo
}

func NewConcursoHandler(concursos *repository.ConcursoRepo) *ConcursoHandler {
	return &ConcursoHandler{concursos: concursos}
}

func (h *ConcursoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateConcursoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	var examDate *time.Time
	if strings.TrimSpace(req.ExamDate) != "" {
		parsed, err := time.Parse("2006-01-02", req.ExamDate)
		if err != nil {
			fields["exam_date"] = "Exam date must be in YYYY-MM-DD format"
		} else {
			examDate = &parsed
		}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation error", fields, r))
		return
	}

	concurso := &models.Concurso{
		UserID:    middleware.GetUserID(r.Context()),
		Name:      strings.TrimSpace(req.Name),
		Organizer: strings.TrimSpace(req.Organizer),
		ExamDate:  examDate,
	}
	if err := h.concursos.Create(r.Context(), concurso); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create concurso", r))
		return
	}

	writeJSON(w, http.StatusCreated, concurso)
}

func (h *ConcursoHandler) List(w http.ResponseWriter, r *http.Request) {
	concursos, err := h.concursos.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list concursos", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"concursos": concursos})
}

func (h *ConcursoHandler) Get(w http.ResponseWriter, r *http.Request) {
	concurso, ok := h.ownedConcurso(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, concurso)
}

func (h *ConcursoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	concurso, ok := h.ownedConcurso(w, r)
	if !ok {
		return
	}

	if err := h.concursos.Delete(r.Context(), concurso.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete concurso", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Concurso deleted"})
}

func (h *ConcursoHandler) ownedConcurso(w http.ResponseWriter, r *http.Request) (*models.Concurso, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid concurso ID", r))
		return nil, false
	}

	concurso, err := h.concursos.GetOwned(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Concurso not found", r))
		case errors.Is(err, repository.ErrForbidden):
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load concurso", r))
		}
		return nil, false
	}

	return concurso, true
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"concurseiro-backend/internal/middleware"
	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/services"
)

type ReadingHandler struct {
	progress *services.ProgressService
}

func NewReadingHandler(progress *services.ProgressService) *ReadingHandler {
	return &ReadingHandler{progress: progress}
}

func (h *ReadingHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	materialID, ok := materialIDParam(w, r)
	if !ok {
		return
	}

	var req models.RecordReadingEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	event, err := h.progress.RecordEvent(r.Context(), middleware.GetUserID(r.Context()), materialID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

func (h *ReadingHandler) Today(w http.ResponseWriter, r *http.Request) {
	materialID, ok := materialIDParam(w, r)
	if !ok {
		return
	}

	activity, err := h.progress.TodayActivity(r.Context(), middleware.GetUserID(r.Context()), materialID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

func (h *ReadingHandler) History(w http.ResponseWriter, r *http.Request) {
	materialID, ok := materialIDParam(w, r)
	if !ok {
		return
	}

	history, err := h.progress.History(r.Context(), middleware.GetUserID(r.Context()), materialID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

func (h *ReadingHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	materialID, ok := materialIDParam(w, r)
	if !ok {
		return
	}

	sessions, err := h.progress.ListSessions(r.Context(), middleware.GetUserID(r.Context()), materialID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *ReadingHandler) MergeSessions(w http.ResponseWriter, r *http.Request) {
	materialID, ok := materialIDParam(w, r)
	if !ok {
		return
	}

	var req models.MergeSessionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.progress.MergeSessions(r.Context(), middleware.GetUserID(r.Context()), materialID, req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Sessions merged"})
}

// ResolveProgress recomputes the material's canonical pages-read value
// from its named study sessions and persists it.
func (h *ReadingHandler) ResolveProgress(w http.ResponseWriter, r *http.Request) {
	materialID, ok := materialIDParam(w, r)
	if !ok {
		return
	}

	material, err := h.progress.ResolveProgress(r.Context(), middleware.GetUserID(r.Context()), materialID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, material)
}

func materialIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid material ID", r))
		return uuid.Nil, false
	}
	return id, true
}

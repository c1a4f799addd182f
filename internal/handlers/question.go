package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"concurseiro-backend/internal/middleware"
	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/repository"
	"concurseiro-backend/internal/services"
)

type QuestionHandler struct {
	questions *services.QuestionService
	sessions  *repository.QuestionRepo
}

func NewQuestionHandler(questions *services.QuestionService, sessions *repository.QuestionRepo) *QuestionHandler {
	return &QuestionHandler{questions: questions, sessions: sessions}
}

// Generate runs the full pipeline synchronously: extract, clean,
// generate, persist. The response carries the session and its
// questions.
func (h *QuestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	materialID, ok := materialIDParam(w, r)
	if !ok {
		return
	}

	var req models.GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, questions, err := h.questions.GenerateQuestions(r.Context(), middleware.GetUserID(r.Context()), materialID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session":   session,
		"questions": questions,
	})
}

func (h *QuestionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessionsByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list sessions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *QuestionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	questions, err := h.sessions.ListQuestions(r.Context(), session.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load questions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":   session,
		"questions": questions,
	})
}

func (h *QuestionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), session.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete session", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted"})
}

func (h *QuestionHandler) ownedSession(w http.ResponseWriter, r *http.Request) (*models.QuestionSession, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return nil, false
	}

	session, err := h.sessions.GetSessionOwned(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		case errors.Is(err, repository.ErrForbidden):
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		}
		return nil, false
	}
	return session, true
}

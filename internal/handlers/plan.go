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

type PlanHandler struct {
	plans *services.PlanService
}

func NewPlanHandler(plans *services.PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	plan, err := h.plans.CreatePlan(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListPlans(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	planID, ok := idParam(w, r, "Invalid plan ID")
	if !ok {
		return
	}

	plan, err := h.plans.GetPlan(r.Context(), middleware.GetUserID(r.Context()), planID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Summary(w http.ResponseWriter, r *http.Request) {
	planID, ok := idParam(w, r, "Invalid plan ID")
	if !ok {
		return
	}

	summary, err := h.plans.Summary(r.Context(), middleware.GetUserID(r.Context()), planID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// AddStudyTime credits minutes against today's allocation for the
// given subject in the active plan.
func (h *PlanHandler) AddStudyTime(w http.ResponseWriter, r *http.Request) {
	var req models.AddProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	alloc, err := h.plans.AddStudyTime(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, alloc)
}

func (h *PlanHandler) AddQuestions(w http.ResponseWriter, r *http.Request) {
	var req models.AddProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	alloc, err := h.plans.AddQuestions(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, alloc)
}

func (h *PlanHandler) ResetAlloc(w http.ResponseWriter, r *http.Request) {
	allocID, ok := idParam(w, r, "Invalid allocation ID")
	if !ok {
		return
	}

	if err := h.plans.ResetAllocProgress(r.Context(), middleware.GetUserID(r.Context()), allocID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Progress reset"})
}

func (h *PlanHandler) SetAllocCompleted(w http.ResponseWriter, r *http.Request) {
	allocID, ok := idParam(w, r, "Invalid allocation ID")
	if !ok {
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.plans.SetAllocCompleted(r.Context(), middleware.GetUserID(r.Context()), allocID, req.Completed); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Allocation updated"})
}

func idParam(w http.ResponseWriter, r *http.Request, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", msg, r))
		return uuid.Nil, false
	}
	return id, true
}

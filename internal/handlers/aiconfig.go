package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"concurseiro-backend/internal/middleware"
	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/repository"
)

type AIConfigHandler struct {
	configs *repository.AIConfigRepo
}

func NewAIConfigHandler(configs *repository.AIConfigRepo) *AIConfigHandler {
	return &AIConfigHandler{configs: configs}
}

func (h *AIConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.GetOrDefault(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load config", r))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

func (h *AIConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAIConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Model) == "" {
		fields["model"] = "Model is required"
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		fields["temperature"] = "Temperature must be between 0 and 2"
	}
	if req.MaxTokens < 1 || req.MaxTokens > 16384 {
		fields["max_tokens"] = "Max tokens must be between 1 and 16384"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation error", fields, r))
		return
	}

	cfg := &models.AIConfig{
		UserID:      middleware.GetUserID(r.Context()),
		Model:       strings.TrimSpace(req.Model),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		APIKey:      req.APIKey,
	}
	if err := h.configs.Upsert(r.Context(), cfg); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save config", r))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

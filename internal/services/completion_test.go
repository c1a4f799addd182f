package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"concurseiro-backend/internal/models"
)

func newTestCompletionClient(t *testing.T, handler http.HandlerFunc) *CompletionClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCompletionClient(server.URL + "/v1")
}

func testAIConfig() *models.AIConfig {
	return &models.AIConfig{Model: "gpt-4o-mini", Temperature: 0.3, MaxTokens: 2048}
}

func TestCompletionClient_HappyPath(t *testing.T) {
	var gotReq struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": "texto estruturado",
					},
					"finish_reason": "stop",
				},
			},
		})
	}

	c := newTestCompletionClient(t, handler)
	got, err := c.Complete(context.Background(), testAIConfig(), "test-key",
		"Você organiza textos.", "Reescreva isto.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "texto estruturado" {
		t.Fatalf("expected structured text, got %q", got)
	}

	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("expected configured model in the request, got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("expected system+user messages, got %+v", gotReq.Messages)
	}
}

func TestCompletionClient_NoSystemMessage(t *testing.T) {
	var messageCount int

	handler := func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []json.RawMessage `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		messageCount = len(req.Messages)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "ok"}},
			},
		})
	}

	c := newTestCompletionClient(t, handler)
	if _, err := c.Complete(context.Background(), testAIConfig(), "test-key", "", "pergunta"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messageCount != 1 {
		t.Errorf("expected only the user message, got %d messages", messageCount)
	}
}

func TestCompletionClient_ServerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "server_error",
				"message": "Internal server error",
			},
		})
	}

	c := newTestCompletionClient(t, handler)
	_, err := c.Complete(context.Background(), testAIConfig(), "test-key", "", "pergunta")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "completion API error") {
		t.Errorf("expected wrapped API error, got %q", err.Error())
	}
}

func TestCompletionClient_NoChoices(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}

	c := newTestCompletionClient(t, handler)
	_, err := c.Complete(context.Background(), testAIConfig(), "test-key", "", "pergunta")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestCompletionClient_MissingKey(t *testing.T) {
	c := NewCompletionClient("")
	_, err := c.Complete(context.Background(), testAIConfig(), "", "", "pergunta")
	if err == nil {
		t.Fatal("expected error without an API key")
	}
}

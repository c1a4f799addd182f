package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type QuestionSession struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	MaterialID    uuid.UUID `json:"material_id"`
	Title         string    `json:"title"`
	PromptExcerpt string    `json:"prompt_excerpt"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Alternative struct {
	Letter  string `json:"letra"`
	Text    string `json:"texto"`
	Correta bool   `json:"correta"`
}

// Question is immutable after bulk insert, except for deletion with its
// session.
type Question struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       uuid.UUID       `json:"session_id"`
	Enunciation     string          `json:"enunciado"`
	Alternatives    []Alternative   `json:"alternativas"`
	AlternativesRaw json.RawMessage `json:"-"`
	Answer          string          `json:"resposta"`
	Explanation     string          `json:"explicacao"`
	SourceParagraph string          `json:"trecho_fonte"`
	CreatedAt       time.Time       `json:"created_at"`
}

type GenerateQuestionsRequest struct {
	Title       string `json:"title"`
	Quantity    int    `json:"quantity"`
	Instruction string `json:"instruction"`
}

type AIConfig struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Model       string    `json:"model"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	APIKey      *string   `json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpdateAIConfigRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	APIKey      *string `json:"api_key"`
}

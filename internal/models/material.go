package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaterialKindPDF   = "pdf"
	MaterialKindVideo = "video"
)

// Material is one study resource. PagesRead is a cache of the progress
// resolver's output and never exceeds TotalPages. For video materials
// TotalPages holds the duration in minutes.
type Material struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	ConcursoID *uuid.UUID `json:"concurso_id"`
	Title      string     `json:"title"`
	Kind       string     `json:"kind"`
	FilePath   *string    `json:"file_path,omitempty"`
	SourceURL  *string    `json:"source_url,omitempty"`
	TotalPages int        `json:"total_pages"`
	PagesRead  int        `json:"pages_read"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type RegisterVideoRequest struct {
	URL        string  `json:"url"`
	ConcursoID *string `json:"concurso_id"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Concurso is a target examination the user is preparing for.
type Concurso struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	Organizer string     `json:"organizer"`
	ExamDate  *time.Time `json:"exam_date"`
	CreatedAt time.Time  `json:"created_at"`
}

type CreateConcursoRequest struct {
	Name      string `json:"name"`
	Organizer string `json:"organizer"`
	ExamDate  string `json:"exam_date"`
}

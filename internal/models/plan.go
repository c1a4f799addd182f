package models

import (
	"time"

	"github.com/google/uuid"
)

type StudyPlan struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	ConcursoID *uuid.UUID `json:"concurso_id"`
	Title      string     `json:"title"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	CreatedAt  time.Time  `json:"created_at"`
	Weeks      []PlanWeek `json:"weeks,omitempty"`
}

type PlanWeek struct {
	ID        uuid.UUID      `json:"id"`
	PlanID    uuid.UUID      `json:"plan_id"`
	WeekIndex int            `json:"week_index"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	Subjects  []SubjectAlloc `json:"subjects,omitempty"`
}

// SubjectAlloc carries monotonic realized counters next to the planned
// targets. Realized values only drop on an explicit reset.
type SubjectAlloc struct {
	ID                uuid.UUID `json:"id"`
	WeekID            uuid.UUID `json:"week_id"`
	Subject           string    `json:"subject"`
	PlannedMinutes    int       `json:"planned_minutes"`
	RealizedMinutes   int       `json:"realized_minutes"`
	PlannedQuestions  int       `json:"planned_questions"`
	RealizedQuestions int       `json:"realized_questions"`
	Completed         bool      `json:"completed"`
}

type CreatePlanRequest struct {
	Title      string                  `json:"title"`
	ConcursoID *string                 `json:"concurso_id"`
	StartDate  string                  `json:"start_date"`
	Weeks      []CreatePlanWeekRequest `json:"weeks"`
}

type CreatePlanWeekRequest struct {
	Subjects []CreateAllocRequest `json:"subjects"`
}

type CreateAllocRequest struct {
	Subject          string `json:"subject"`
	PlannedMinutes   int    `json:"planned_minutes"`
	PlannedQuestions int    `json:"planned_questions"`
}

type AddProgressRequest struct {
	Subject string `json:"subject"`
	Amount  int    `json:"amount"`
}

// PlanSummary sums planned vs realized figures across a plan's allocations.
type PlanSummary struct {
	PlanID            uuid.UUID `json:"plan_id"`
	Title             string    `json:"title"`
	PlannedMinutes    int       `json:"planned_minutes"`
	RealizedMinutes   int       `json:"realized_minutes"`
	PlannedQuestions  int       `json:"planned_questions"`
	RealizedQuestions int       `json:"realized_questions"`
	SubjectCount      int       `json:"subject_count"`
	CompletedSubjects int       `json:"completed_subjects"`
	CompletionPercent float64   `json:"completion_percent"`
	AvgMinutesPerWeek float64   `json:"avg_minutes_per_week"`
}

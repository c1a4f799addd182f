package models

import (
	"time"

	"github.com/google/uuid"
)

// ReadingEvent is an append-only record of one reading burst. SessionLabel
// and Subjects are only rewritten when mini-sessions are merged into a
// named study session.
type ReadingEvent struct {
	ID           uuid.UUID `json:"id"`
	MaterialID   uuid.UUID `json:"material_id"`
	PageReached  int       `json:"page_reached"`
	SecondsSpent int       `json:"seconds_spent"`
	OccurredAt   time.Time `json:"occurred_at"`
	SessionLabel *string   `json:"session_label"`
	Subjects     *string   `json:"subjects"`
	CreatedAt    time.Time `json:"created_at"`
}

type RecordReadingEventRequest struct {
	PageReached  int    `json:"page_reached"`
	SecondsSpent int    `json:"seconds_spent"`
	Subject      string `json:"subject"`
}

type MergeSessionsRequest struct {
	EventIDs []uuid.UUID `json:"event_ids"`
	Name     string      `json:"name"`
	Subject  string      `json:"subject"`
}

// DayActivity is one calendar-date bucket of the reading history.
type DayActivity struct {
	Date      string `json:"date"`
	MaxPage   int    `json:"max_page"`
	PagesRead int    `json:"pages_read"`
	Sessions  int    `json:"sessions"`
	Minutes   int    `json:"minutes"`
}

// ReadingHistory aggregates DayActivity buckets over a trailing window.
type ReadingHistory struct {
	Days          []DayActivity `json:"days"`
	ActiveDays    int           `json:"active_days"`
	TotalPages    int           `json:"total_pages"`
	TotalSessions int           `json:"total_sessions"`
	TotalMinutes  int           `json:"total_minutes"`
	MaxPage       int           `json:"max_page"`
	AvgPagesDay   float64       `json:"avg_pages_day"`
	AvgMinutesDay float64       `json:"avg_minutes_day"`
}

// StudySessionView is a named session reconstructed from its labeled events.
type StudySessionView struct {
	Name       string    `json:"name"`
	Subjects   string    `json:"subjects"`
	Events     int       `json:"events"`
	MaxPage    int       `json:"max_page"`
	Minutes    int       `json:"minutes"`
	FirstEvent time.Time `json:"first_event"`
	LastEvent  time.Time `json:"last_event"`
}

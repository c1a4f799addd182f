package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"concurseiro-backend/internal/models"
)

type ReadingEventRepo struct {
	pool *pgxpool.Pool
}

func NewReadingEventRepo(pool *pgxpool.Pool) *ReadingEventRepo {
	return &ReadingEventRepo{pool: pool}
}

func (r *ReadingEventRepo) Create(ctx context.Context, e *models.ReadingEvent) error {
	query := `INSERT INTO reading_events (material_id, page_reached, seconds_spent, occurred_at, session_label, subjects)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		e.MaterialID, e.PageReached, e.SecondsSpent, e.OccurredAt, e.SessionLabel, e.Subjects,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *ReadingEventRepo) ListByMaterial(ctx context.Context, materialID uuid.UUID) ([]models.ReadingEvent, error) {
	query := `SELECT id, material_id, page_reached, seconds_spent, occurred_at, session_label, subjects, created_at
		FROM reading_events WHERE material_id = $1 ORDER BY occurred_at ASC`

	return r.scanEvents(ctx, query, materialID)
}

func (r *ReadingEventRepo) ListSince(ctx context.Context, materialID uuid.UUID, since time.Time) ([]models.ReadingEvent, error) {
	query := `SELECT id, material_id, page_reached, seconds_spent, occurred_at, session_label, subjects, created_at
		FROM reading_events WHERE material_id = $1 AND occurred_at >= $2 ORDER BY occurred_at ASC`

	return r.scanEvents(ctx, query, materialID, since)
}

func (r *ReadingEventRepo) GetByIDs(ctx context.Context, materialID uuid.UUID, ids []uuid.UUID) ([]models.ReadingEvent, error) {
	query := `SELECT id, material_id, page_reached, seconds_spent, occurred_at, session_label, subjects, created_at
		FROM reading_events WHERE material_id = $1 AND id = ANY($2) ORDER BY occurred_at ASC`

	return r.scanEvents(ctx, query, materialID, ids)
}

// EventLabelUpdate is one event's new label and merged subject set.
type EventLabelUpdate struct {
	EventID  uuid.UUID
	Label    string
	Subjects string
}

// ApplyMerge back-fills labels and subjects for a merged session in a
// single transaction, so a partially applied merge never survives.
func (r *ReadingEventRepo) ApplyMerge(ctx context.Context, updates []EventLabelUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, u := range updates {
		_, err := tx.Exec(ctx,
			"UPDATE reading_events SET session_label = $1, subjects = $2 WHERE id = $3",
			u.Label, u.Subjects, u.EventID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ReadingEventRepo) scanEvents(ctx context.Context, query string, args ...interface{}) ([]models.ReadingEvent, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ReadingEvent
	for rows.Next() {
		var e models.ReadingEvent
		err := rows.Scan(
			&e.ID, &e.MaterialID, &e.PageReached, &e.SecondsSpent,
			&e.OccurredAt, &e.SessionLabel, &e.Subjects, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

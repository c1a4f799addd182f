package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concurseiro-backend/internal/models"
)

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

// CreatePlan inserts the plan, its weeks and their subject allocations in
// one transaction.
func (r *PlanRepo) CreatePlan(ctx context.Context, p *models.StudyPlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO study_plans (user_id, concurso_id, title, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		p.UserID, p.ConcursoID, p.Title, p.StartDate, p.EndDate,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return err
	}

	for wi := range p.Weeks {
		w := &p.Weeks[wi]
		w.PlanID = p.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO plan_weeks (plan_id, week_index, start_date, end_date)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			p.ID, w.WeekIndex, w.StartDate, w.EndDate,
		).Scan(&w.ID)
		if err != nil {
			return err
		}

		for si := range w.Subjects {
			s := &w.Subjects[si]
			s.WeekID = w.ID
			err = tx.QueryRow(ctx,
				`INSERT INTO week_subjects (week_id, subject, planned_minutes, planned_questions)
				 VALUES ($1, $2, $3, $4) RETURNING id`,
				w.ID, s.Subject, s.PlannedMinutes, s.PlannedQuestions,
			).Scan(&s.ID)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (r *PlanRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.StudyPlan, error) {
	query := `SELECT id, user_id, concurso_id, title, start_date, end_date, created_at
		FROM study_plans WHERE user_id = $1 ORDER BY start_date DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.StudyPlan
	for rows.Next() {
		p := &models.StudyPlan{}
		err := rows.Scan(&p.ID, &p.UserID, &p.ConcursoID, &p.Title, &p.StartDate, &p.EndDate, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *PlanRepo) GetOwned(ctx context.Context, userID, id uuid.UUID) (*models.StudyPlan, error) {
	p := &models.StudyPlan{}
	query := `SELECT id, user_id, concurso_id, title, start_date, end_date, created_at
		FROM study_plans WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.ConcursoID, &p.Title, &p.StartDate, &p.EndDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}

	if err := r.loadWeeks(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindActive returns the user's plan whose date range covers the given
// day, weeks and allocations included.
func (r *PlanRepo) FindActive(ctx context.Context, userID uuid.UUID, day time.Time) (*models.StudyPlan, error) {
	p := &models.StudyPlan{}
	query := `SELECT id, user_id, concurso_id, title, start_date, end_date, created_at
		FROM study_plans
		WHERE user_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, userID, day).Scan(
		&p.ID, &p.UserID, &p.ConcursoID, &p.Title, &p.StartDate, &p.EndDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := r.loadWeeks(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlanRepo) loadWeeks(ctx context.Context, p *models.StudyPlan) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, plan_id, week_index, start_date, end_date
		 FROM plan_weeks WHERE plan_id = $1 ORDER BY week_index ASC`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var w models.PlanWeek
		if err := rows.Scan(&w.ID, &w.PlanID, &w.WeekIndex, &w.StartDate, &w.EndDate); err != nil {
			return err
		}
		p.Weeks = append(p.Weeks, w)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for wi := range p.Weeks {
		w := &p.Weeks[wi]
		srows, err := r.pool.Query(ctx,
			`SELECT id, week_id, subject, planned_minutes, realized_minutes, planned_questions, realized_questions, completed
			 FROM week_subjects WHERE week_id = $1 ORDER BY subject ASC`, w.ID)
		if err != nil {
			return err
		}
		for srows.Next() {
			var s models.SubjectAlloc
			err := srows.Scan(&s.ID, &s.WeekID, &s.Subject, &s.PlannedMinutes, &s.RealizedMinutes,
				&s.PlannedQuestions, &s.RealizedQuestions, &s.Completed)
			if err != nil {
				srows.Close()
				return err
			}
			w.Subjects = append(w.Subjects, s)
		}
		srows.Close()
		if err := srows.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (r *PlanRepo) AddRealizedMinutes(ctx context.Context, allocID uuid.UUID, minutes int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE week_subjects SET realized_minutes = realized_minutes + $1 WHERE id = $2",
		minutes, allocID,
	)
	return err
}

func (r *PlanRepo) AddRealizedQuestions(ctx context.Context, allocID uuid.UUID, count int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE week_subjects SET realized_questions = realized_questions + $1 WHERE id = $2",
		count, allocID,
	)
	return err
}

// GetAllocOwned resolves an allocation through its plan for the
// ownership check.
func (r *PlanRepo) GetAllocOwned(ctx context.Context, userID, allocID uuid.UUID) (*models.SubjectAlloc, error) {
	s := &models.SubjectAlloc{}
	var ownerID uuid.UUID
	query := `SELECT ws.id, ws.week_id, ws.subject, ws.planned_minutes, ws.realized_minutes,
			ws.planned_questions, ws.realized_questions, ws.completed, sp.user_id
		FROM week_subjects ws
		JOIN plan_weeks pw ON pw.id = ws.week_id
		JOIN study_plans sp ON sp.id = pw.plan_id
		WHERE ws.id = $1`

	err := r.pool.QueryRow(ctx, query, allocID).Scan(
		&s.ID, &s.WeekID, &s.Subject, &s.PlannedMinutes, &s.RealizedMinutes,
		&s.PlannedQuestions, &s.RealizedQuestions, &s.Completed, &ownerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	return s, nil
}

// ResetAlloc zeroes the realized counters. The only path that ever
// decrements them.
func (r *PlanRepo) ResetAlloc(ctx context.Context, allocID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE week_subjects SET realized_minutes = 0, realized_questions = 0, completed = FALSE WHERE id = $1",
		allocID,
	)
	return err
}

func (r *PlanRepo) SetCompleted(ctx context.Context, allocID uuid.UUID, completed bool) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE week_subjects SET completed = $1 WHERE id = $2",
		completed, allocID,
	)
	return err
}

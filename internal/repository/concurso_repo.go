package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concurseiro-backend/internal/models"
)

type ConcursoRepo struct {
	pool *pgxpool.Pool
}

func NewConcursoRepo(pool *pgxpool.Pool) *ConcursoRepo {
	return &ConcursoRepo{pool: pool}
}

func (r *ConcursoRepo) Create(ctx context.Context, c *models.Concurso) error {
	query := `INSERT INTO concursos (user_id, name, organizer, exam_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query, c.UserID, c.Name, c.Organizer, c.ExamDate).Scan(
		&c.ID, &c.CreatedAt,
	)
}

func (r *ConcursoRepo) GetOwned(ctx context.Context, userID, id uuid.UUID) (*models.Concurso, error) {
	c := &models.Concurso{}
	query := `SELECT id, user_id, name, organizer, exam_date, created_at
		FROM concursos WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Organizer, &c.ExamDate, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

func (r *ConcursoRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Concurso, error) {
	query := `SELECT id, user_id, name, organizer, exam_date, created_at
		FROM concursos WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var concursos []*models.Concurso
	for rows.Next() {
		c := &models.Concurso{}
		err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Organizer, &c.ExamDate, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		concursos = append(concursos, c)
	}
	return concursos, rows.Err()
}

func (r *ConcursoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM concursos WHERE id = $1", id)
	return err
}

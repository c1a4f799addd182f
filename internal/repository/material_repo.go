package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concurseiro-backend/internal/models"
)

type MaterialRepo struct {
	pool *pgxpool.Pool
}

func NewMaterialRepo(pool *pgxpool.Pool) *MaterialRepo {
	return &MaterialRepo{pool: pool}
}

func (r *MaterialRepo) Create(ctx context.Context, m *models.Material) error {
	query := `INSERT INTO materials (user_id, concurso_id, title, kind, file_path, source_url, total_pages)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, pages_read, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		m.UserID, m.ConcursoID, m.Title, m.Kind, m.FilePath, m.SourceURL, m.TotalPages,
	).Scan(&m.ID, &m.PagesRead, &m.CreatedAt, &m.UpdatedAt)
}

// GetOwned is the single authorization point for material access: it
// distinguishes a missing row (ErrNotFound) from a row owned by another
// user (ErrForbidden) before any business logic runs.
func (r *MaterialRepo) GetOwned(ctx context.Context, userID, id uuid.UUID) (*models.Material, error) {
	m, err := r.getByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.UserID != userID {
		return nil, ErrForbidden
	}
	return m, nil
}

func (r *MaterialRepo) getByID(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	m := &models.Material{}
	query := `SELECT id, user_id, concurso_id, title, kind, file_path, source_url, total_pages, pages_read, created_at, updated_at
		FROM materials WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.ConcursoID, &m.Title, &m.Kind, &m.FilePath, &m.SourceURL,
		&m.TotalPages, &m.PagesRead, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MaterialRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Material, error) {
	query := `SELECT id, user_id, concurso_id, title, kind, file_path, source_url, total_pages, pages_read, created_at, updated_at
		FROM materials WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []*models.Material
	for rows.Next() {
		m := &models.Material{}
		err := rows.Scan(
			&m.ID, &m.UserID, &m.ConcursoID, &m.Title, &m.Kind, &m.FilePath, &m.SourceURL,
			&m.TotalPages, &m.PagesRead, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// UpdatePagesRead persists the resolver's cached value. Last write wins
// when concurrent requests race on the same material.
func (r *MaterialRepo) UpdatePagesRead(ctx context.Context, id uuid.UUID, pagesRead int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE materials SET pages_read = $1, updated_at = NOW() WHERE id = $2",
		pagesRead, id,
	)
	return err
}

func (r *MaterialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM materials WHERE id = $1", id)
	return err
}

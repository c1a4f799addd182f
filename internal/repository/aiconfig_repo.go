package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concurseiro-backend/internal/models"
)

type AIConfigRepo struct {
	pool *pgxpool.Pool
}

func NewAIConfigRepo(pool *pgxpool.Pool) *AIConfigRepo {
	return &AIConfigRepo{pool: pool}
}

// GetOrDefault returns the user's stored completion settings, or the
// defaults when no row exists yet.
func (r *AIConfigRepo) GetOrDefault(ctx context.Context, userID uuid.UUID) (*models.AIConfig, error) {
	c := &models.AIConfig{}
	query := `SELECT id, user_id, model, temperature, max_tokens, api_key, updated_at
		FROM ai_configs WHERE user_id = $1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&c.ID, &c.UserID, &c.Model, &c.Temperature, &c.MaxTokens, &c.APIKey, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.AIConfig{
			UserID:      userID,
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   2048,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *AIConfigRepo) Upsert(ctx context.Context, c *models.AIConfig) error {
	query := `INSERT INTO ai_configs (user_id, model, temperature, max_tokens, api_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET model = EXCLUDED.model,
			temperature = EXCLUDED.temperature,
			max_tokens = EXCLUDED.max_tokens,
			api_key = EXCLUDED.api_key,
			updated_at = NOW()
		RETURNING id, updated_at`

	return r.pool.QueryRow(ctx, query,
		c.UserID, c.Model, c.Temperature, c.MaxTokens, c.APIKey,
	).Scan(&c.ID, &c.UpdatedAt)
}

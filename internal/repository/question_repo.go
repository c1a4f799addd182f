package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concurseiro-backend/internal/models"
)

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

func (r *QuestionRepo) CreateSession(ctx context.Context, s *models.QuestionSession) error {
	query := `INSERT INTO question_sessions (user_id, material_id, title, prompt_excerpt)
		VALUES ($1, $2, $3, $4)
		RETURNING id, question_count, created_at`

	return r.pool.QueryRow(ctx, query, s.UserID, s.MaterialID, s.Title, s.PromptExcerpt).Scan(
		&s.ID, &s.QuestionCount, &s.CreatedAt,
	)
}

// InsertQuestions bulk-inserts a generated batch and refreshes the
// session's question count.
func (r *QuestionRepo) InsertQuestions(ctx context.Context, sessionID uuid.UUID, questions []models.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range questions {
		q := &questions[i]
		altBytes, err := json.Marshal(q.Alternatives)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO questions (session_id, enunciation, alternatives, answer, explanation, source_paragraph)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
			sessionID, q.Enunciation, altBytes, q.Answer, q.Explanation, q.SourceParagraph,
		).Scan(&q.ID, &q.CreatedAt)
		if err != nil {
			return err
		}
		q.SessionID = sessionID
	}

	_, err = tx.Exec(ctx,
		"UPDATE question_sessions SET question_count = $1 WHERE id = $2",
		len(questions), sessionID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *QuestionRepo) GetSessionOwned(ctx context.Context, userID, id uuid.UUID) (*models.QuestionSession, error) {
	s := &models.QuestionSession{}
	query := `SELECT id, user_id, material_id, title, prompt_excerpt, question_count, created_at
		FROM question_sessions WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.MaterialID, &s.Title, &s.PromptExcerpt, &s.QuestionCount, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.UserID != userID {
		return nil, ErrForbidden
	}
	return s, nil
}

func (r *QuestionRepo) ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]*models.QuestionSession, error) {
	query := `SELECT id, user_id, material_id, title, prompt_excerpt, question_count, created_at
		FROM question_sessions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.QuestionSession
	for rows.Next() {
		s := &models.QuestionSession{}
		err := rows.Scan(&s.ID, &s.UserID, &s.MaterialID, &s.Title, &s.PromptExcerpt, &s.QuestionCount, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *QuestionRepo) ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]models.Question, error) {
	query := `SELECT id, session_id, enunciation, alternatives, answer, explanation, source_paragraph, created_at
		FROM questions WHERE session_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		err := rows.Scan(&q.ID, &q.SessionID, &q.Enunciation, &q.AlternativesRaw, &q.Answer, &q.Explanation, &q.SourceParagraph, &q.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(q.AlternativesRaw, &q.Alternatives); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepo) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM question_sessions WHERE id = $1", id)
	return err
}

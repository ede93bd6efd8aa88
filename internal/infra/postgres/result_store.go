package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-session-engine/internal/domain"
)

// ResultStore persists accepted quiz aggregates.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, submission domain.StoredSubmission) error {
	results, err := json.Marshal(submission.Aggregate.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_results (id, username, category, score, total_questions, results, completed_at, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		submission.Receipt.ID,
		submission.Receipt.Username,
		submission.Aggregate.Category,
		submission.Aggregate.Score,
		submission.Aggregate.TotalQuestions,
		results,
		submission.Aggregate.CompletedAt,
		submission.Receipt.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// History returns the stored submissions of username, newest first.
func (s *ResultStore) History(ctx context.Context, username string, limit int) ([]domain.StoredSubmission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, category, score, total_questions, results, completed_at, received_at
		   FROM quiz_results WHERE username=$1 ORDER BY received_at DESC LIMIT $2`,
		username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredSubmission
	for rows.Next() {
		var (
			sub domain.StoredSubmission
			raw []byte
		)
		err := rows.Scan(
			&sub.Receipt.ID,
			&sub.Aggregate.Category,
			&sub.Aggregate.Score,
			&sub.Aggregate.TotalQuestions,
			&raw,
			&sub.Aggregate.CompletedAt,
			&sub.Receipt.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal(raw, &sub.Aggregate.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		sub.Receipt.Username = username
		sub.Receipt.Category = sub.Aggregate.Category
		sub.Receipt.Score = sub.Aggregate.Score
		out = append(out, sub)
	}
	return out, rows.Err()
}

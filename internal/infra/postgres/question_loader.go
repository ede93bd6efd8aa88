package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-session-engine/internal/domain"
)

// QuestionLoader loads question JSONB (backend wire form) from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, category string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM questions WHERE category=$1 ORDER BY id`, category)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question %d: %w", id, err)
		}
		q.ID = id
		q.Category = category
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrCategoryNotFound
	}
	return questions, nil
}

// InsertQuestions stores questions under their category and returns the
// assigned ids in input order.
func (l *QuestionLoader) InsertQuestions(ctx context.Context, questions []domain.Question) ([]int64, error) {
	ids := make([]int64, 0, len(questions))
	err := l.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, q := range questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal question: %w", err)
			}
			var id int64
			err = tx.QueryRow(ctx,
				`INSERT INTO questions (category, difficulty, data) VALUES ($1, $2, $3) RETURNING id`,
				q.Category, string(q.Difficulty), raw,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

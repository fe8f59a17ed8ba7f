package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"morse-quiz-service/internal/domain"
)

// AnswerStore is the remote answer store backed by the answers and profiles tables.
type AnswerStore struct {
	pool *pgxpool.Pool
}

func NewAnswerStore(pool *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{pool: pool}
}

const answerColumns = `user_id, question_id, user_answer, is_correct, time_taken_seconds, answered_at`

func (s *AnswerStore) LoadAnswers(ctx context.Context, userID string) ([]domain.AnswerRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+answerColumns+` FROM answers WHERE user_id=$1`, userID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return scanAnswers(rows)
}

// SaveAnswer upserts on (user_id, question_id).
func (s *AnswerStore) SaveAnswer(ctx context.Context, record domain.AnswerRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO answers (`+answerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, question_id) DO UPDATE SET
			user_answer = EXCLUDED.user_answer,
			is_correct = EXCLUDED.is_correct,
			time_taken_seconds = EXCLUDED.time_taken_seconds,
			answered_at = EXCLUDED.answered_at`,
		record.UserID, record.QuestionID, record.SubmittedAnswer, record.IsCorrect, record.TimeTakenSeconds, record.AnsweredAt)
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

func (s *AnswerStore) DeleteAnswers(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM answers WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}

func (s *AnswerStore) SaveProfile(ctx context.Context, userID, displayName string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, display_name, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = now()`,
		userID, displayName)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// LoadLeaderboard reads every answer record plus the known display names. It is a
// point-in-time read; writes landing concurrently may or may not be included.
func (s *AnswerStore) LoadLeaderboard(ctx context.Context) (domain.LeaderboardSnapshot, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+answerColumns+` FROM answers`)
	if err != nil {
		return domain.LeaderboardSnapshot{}, fmt.Errorf("load leaderboard answers: %w", err)
	}
	records, err := scanAnswers(rows)
	if err != nil {
		return domain.LeaderboardSnapshot{}, err
	}

	nameRows, err := s.pool.Query(ctx, `SELECT user_id, display_name FROM profiles`)
	if err != nil {
		return domain.LeaderboardSnapshot{}, fmt.Errorf("load profiles: %w", err)
	}
	defer nameRows.Close()
	names := make(map[string]string)
	for nameRows.Next() {
		var userID, name string
		if err := nameRows.Scan(&userID, &name); err != nil {
			return domain.LeaderboardSnapshot{}, fmt.Errorf("scan profile: %w", err)
		}
		names[userID] = name
	}
	if err := nameRows.Err(); err != nil {
		return domain.LeaderboardSnapshot{}, fmt.Errorf("load profiles: %w", err)
	}
	return domain.LeaderboardSnapshot{Records: records, DisplayNames: names}, nil
}

func scanAnswers(rows pgx.Rows) ([]domain.AnswerRecord, error) {
	defer rows.Close()
	var records []domain.AnswerRecord
	for rows.Next() {
		var r domain.AnswerRecord
		if err := rows.Scan(&r.UserID, &r.QuestionID, &r.SubmittedAnswer, &r.IsCorrect, &r.TimeTakenSeconds, &r.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		r.AnsweredAt = r.AnsweredAt.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	return records, nil
}

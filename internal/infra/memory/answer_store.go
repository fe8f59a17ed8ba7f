package memory

import (
	"context"
	"sync"

	"morse-quiz-service/internal/domain"
)

type answerKey struct {
	userID     string
	questionID int64
}

// AnswerStore is an in-process app.RemoteStore for single-node runs without Postgres.
// Like the answers table, it keeps one record per (user, question).
type AnswerStore struct {
	mu       sync.RWMutex
	answers  map[answerKey]domain.AnswerRecord
	profiles map[string]string
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{
		answers:  make(map[answerKey]domain.AnswerRecord),
		profiles: make(map[string]string),
	}
}

func (s *AnswerStore) LoadAnswers(_ context.Context, userID string) ([]domain.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AnswerRecord
	for key, record := range s.answers {
		if key.userID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *AnswerStore) SaveAnswer(_ context.Context, record domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[answerKey{userID: record.UserID, questionID: record.QuestionID}] = record
	return nil
}

func (s *AnswerStore) DeleteAnswers(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.answers {
		if key.userID == userID {
			delete(s.answers, key)
		}
	}
	return nil
}

func (s *AnswerStore) SaveProfile(_ context.Context, userID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = displayName
	return nil
}

func (s *AnswerStore) LoadLeaderboard(_ context.Context) (domain.LeaderboardSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := domain.LeaderboardSnapshot{
		Records:      make([]domain.AnswerRecord, 0, len(s.answers)),
		DisplayNames: make(map[string]string, len(s.profiles)),
	}
	for _, record := range s.answers {
		snapshot.Records = append(snapshot.Records, record)
	}
	for userID, name := range s.profiles {
		snapshot.DisplayNames[userID] = name
	}
	return snapshot, nil
}

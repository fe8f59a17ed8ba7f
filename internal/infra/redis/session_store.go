package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"morse-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions themselves stay in a local map; they hold connection-bound state.
//   - Redis carries a liveness marker per user so other instances (or operators)
//     can see who is mid-quiz.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(userID string, session *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.sessions[userID]
	s.sessions[userID] = session
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(userID), "1", s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("mark session live")
	}
	return previous
}

func (s *SessionStore) Get(userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *SessionStore) Delete(userID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok || current != session {
		return
	}
	delete(s.sessions, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
}

func (s *SessionStore) key(userID string) string {
	return "morse:session:" + userID
}

package memory

import (
	"sync"

	"morse-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository keyed by user.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(userID string, session *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.sessions[userID]
	s.sessions[userID] = session
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
	if current, ok := s.sessions[userID]; ok && current == session {
		delete(s.sessions, userID)
	}
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"morse-quiz-service/internal/domain"
)

// SessionRepository abstracts where active quiz sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	// Put registers session for userID and returns the session it replaced, if any.
	Put(userID string, session *Session) *Session
	Get(userID string) (*Session, bool)
	// Delete removes the entry only if it still holds session.
	Delete(userID string, session *Session)
}

// QuizService contains the quiz use cases and wires sessions to their stores.
type QuizService struct {
	sessions SessionRepository
	catalog  CatalogRepository
	remote   RemoteStore
	local    LocalCache
	timeout  time.Duration
	now      func() time.Time
}

func NewQuizService(sessions SessionRepository, catalog CatalogRepository, remote RemoteStore, local LocalCache, timeout time.Duration) *QuizService {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &QuizService{
		sessions: sessions,
		catalog:  catalog,
		remote:   remote,
		local:    local,
		timeout:  timeout,
		now:      time.Now,
	}
}

// WithClock is test-only for deterministic timing.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// Start opens a session once the user is known: it loads the catalog and the user's
// progress. A previous session for the same user is discarded.
func (s *QuizService) Start(ctx context.Context, identity domain.Identity) (*Session, error) {
	if !identity.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	questions, err := QuestionsInOrder(ctx, s.catalog)
	if err != nil {
		return nil, err
	}
	tracker := NewTracker(questions)

	store := NewAnswerStoreWithClock(s.remote, s.local, tracker, s.timeout, s.now)
	progress, err := store.LoadProgress(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	store.SaveProfile(ctx, identity.UserID, identity.DisplayName)

	session := newSession(identity, tracker, store, progress, s.now)
	if previous := s.sessions.Put(identity.UserID, session); previous != nil && previous != session {
		previous.Close()
	}

	log.Info().
		Str("user_id", identity.UserID).
		Int("current_ordinal", progress.CurrentOrdinal).
		Bool("degraded", store.Degraded()).
		Msg("quiz session started")
	return session, nil
}

// Session returns the active session for a user.
func (s *QuizService) Session(userID string) (*Session, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// End discards a specific session, e.g. when its connection goes away.
func (s *QuizService) End(userID string, session *Session) {
	session.Close()
	s.sessions.Delete(userID, session)
}

// SignedOut handles the auth-state-lost signal for a user: whatever session is active
// is discarded and nothing further is persisted for it.
func (s *QuizService) SignedOut(userID string) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return
	}
	s.End(userID, session)
	log.Info().Str("user_id", userID).Msg("quiz session ended on sign-out")
}

// Leaderboard computes the top entries from a fresh snapshot of all users' records.
func (s *QuizService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	questions, err := QuestionsInOrder(ctx, s.catalog)
	if err != nil {
		return nil, err
	}
	if s.remote == nil {
		return nil, domain.ErrLeaderboardUnavailable
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	snapshot, err := s.remote.LoadLeaderboard(remoteCtx)
	if err != nil {
		log.Warn().Err(err).Str("op", "load_leaderboard").Msg("remote store unavailable")
		return nil, fmt.Errorf("%w: %w", domain.ErrLeaderboardUnavailable, err)
	}
	return ComputeLeaderboard(snapshot.Records, len(questions), snapshot.DisplayNames), nil
}

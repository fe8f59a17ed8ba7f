package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"morse-quiz-service/internal/domain"
	"morse-quiz-service/internal/morse"
)

// Session is one user's run through the catalog. Actions that persist (submit, retry)
// are serialized: one issued while another is still in flight fails with
// domain.ErrOperationInProgress. After Close, in-flight writes may still land in the
// stores but no longer change the session.
type Session struct {
	identity domain.Identity
	tracker  *Tracker
	store    *AnswerStore
	now      func() time.Time

	busy atomic.Bool

	mu         sync.Mutex
	progress   domain.ProgressState
	buffer     morse.Buffer
	focusStart time.Time
	closed     bool
}

func newSession(identity domain.Identity, tracker *Tracker, store *AnswerStore, progress domain.ProgressState, now func() time.Time) *Session {
	s := &Session{
		identity: identity,
		tracker:  tracker,
		store:    store,
		now:      now,
		progress: progress,
	}
	s.focusLocked()
	return s
}

func (s *Session) Identity() domain.Identity {
	return s.identity
}

func (s *Session) Progress() domain.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Session) AppendDot() error       { return s.input((*morse.Buffer).AppendDot) }
func (s *Session) AppendDash() error      { return s.input((*morse.Buffer).AppendDash) }
func (s *Session) AppendSeparator() error { return s.input((*morse.Buffer).AppendSeparator) }
func (s *Session) ClearInput() error      { return s.input((*morse.Buffer).Clear) }

func (s *Session) input(apply func(*morse.Buffer)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	apply(&s.buffer)
	return nil
}

// Submit grades the input buffer against a question. A zero questionID means the
// current question.
func (s *Session) Submit(ctx context.Context, questionID int64) (domain.SubmitResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.SubmitResult{}, domain.ErrOperationInProgress
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.SubmitResult{}, domain.ErrSessionClosed
	}
	if questionID == 0 {
		questionID = s.currentLocked().ID
	}
	answer := s.buffer.Value()
	if err := s.tracker.CheckSubmission(s.progress, questionID, answer); err != nil {
		s.mu.Unlock()
		return domain.SubmitResult{}, err
	}
	elapsed := s.elapsedLocked()
	s.mu.Unlock()

	record, err := s.store.RecordAnswer(ctx, s.identity.UserID, questionID, answer, elapsed)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.SubmitResult{}, domain.ErrSessionClosed
	}
	s.progress = s.tracker.Apply(s.progress, record)
	s.buffer.Clear()

	result := domain.SubmitResult{Record: record, CatalogComplete: s.progress.Complete}
	if !s.progress.Complete {
		next := s.currentLocked()
		result.NextQuestionID = next.ID
		// A retry of the same question is timed from here, not from its first focus.
		s.focusLocked()
	}
	return result, nil
}

// Retry clears all progress for the user and restarts at the first question.
func (s *Session) Retry(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.ErrOperationInProgress
	}
	defer s.busy.Store(false)

	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	if err := s.store.ClearProgress(ctx, s.identity.UserID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.progress = s.tracker.Progress(nil)
	s.buffer.Clear()
	s.focusLocked()
	return nil
}

// Results summarizes the session's progress for the results view.
func (s *Session) Results() (domain.Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Results{}, domain.ErrSessionClosed
	}
	return BuildResults(s.identity.UserID, s.tracker, s.progress), nil
}

// View returns the render-ready state of the session.
func (s *Session) View() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := s.buffer.Value()
	view := domain.SessionView{
		UserID:          s.identity.UserID,
		DisplayName:     s.identity.DisplayName,
		Questions:       s.tracker.Views(s.progress),
		Total:           s.tracker.Size(),
		ProgressPercent: s.tracker.ProgressPercent(s.progress),
		Input:           input,
		Decoded:         morse.Decode(input),
		Complete:        s.progress.Complete,
		Degraded:        s.store.Degraded(),
	}
	if !s.progress.Complete && !s.closed {
		current := s.currentLocked()
		for i := range view.Questions {
			if view.Questions[i].ID == current.ID {
				view.Current = &view.Questions[i]
			}
		}
	}
	return view
}

// Close discards in-memory progress. Later actions fail with domain.ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.progress = domain.ProgressState{}
	s.buffer.Clear()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) currentLocked() domain.Question {
	q, _ := s.tracker.QuestionAt(s.progress.CurrentOrdinal)
	return q
}

func (s *Session) focusLocked() {
	s.focusStart = s.now()
}

func (s *Session) elapsedLocked() int {
	elapsed := s.now().Sub(s.focusStart)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Second)
}

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"morse-quiz-service/internal/domain"
)

// RemoteStore is the durable, shared answer store (Postgres in production).
type RemoteStore interface {
	LoadAnswers(ctx context.Context, userID string) ([]domain.AnswerRecord, error)
	SaveAnswer(ctx context.Context, record domain.AnswerRecord) error
	DeleteAnswers(ctx context.Context, userID string) error
	SaveProfile(ctx context.Context, userID, displayName string) error
	LoadLeaderboard(ctx context.Context) (domain.LeaderboardSnapshot, error)
}

// LocalCache is the process-local key/value fallback. Get reports found=false for missing keys.
type LocalCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// DefaultRemoteTimeout bounds a single remote call before the fallback path is taken.
const DefaultRemoteTimeout = 3 * time.Second

// AnswerStore persists answer records to the remote store with the local cache as
// a durability backstop. Once any remote call fails the store is degraded for the
// rest of its life: reads and writes go to the local cache only, while clears are
// still sent to the remote. One AnswerStore belongs to one session.
type AnswerStore struct {
	remote  RemoteStore
	local   LocalCache
	tracker *Tracker
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	degraded bool
}

func NewAnswerStore(remote RemoteStore, local LocalCache, tracker *Tracker, timeout time.Duration) *AnswerStore {
	return NewAnswerStoreWithClock(remote, local, tracker, timeout, time.Now)
}

// NewAnswerStoreWithClock allows deterministic timestamps in tests.
func NewAnswerStoreWithClock(remote RemoteStore, local LocalCache, tracker *Tracker, timeout time.Duration, now func() time.Time) *AnswerStore {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &AnswerStore{
		remote:  remote,
		local:   local,
		tracker: tracker,
		timeout: timeout,
		now:     now,
	}
}

// Degraded reports whether the remote path has been abandoned for this store.
func (s *AnswerStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded || s.remote == nil
}

func (s *AnswerStore) degrade(userID, op string, err error) {
	s.mu.Lock()
	s.degraded = true
	s.mu.Unlock()
	log.Warn().Err(err).Str("user_id", userID).Str("op", op).Msg("remote store unavailable, continuing with local cache")
}

// LoadProgress reads remote records first and falls back to the local cache on any
// remote failure. Records held only locally (written while degraded in an earlier
// session) are merged in and saved to the remote, and a clear that never reached the
// remote is applied there. The merged view is written back to the local cache.
// A local cache failure only fails the load when the remote is unavailable too.
func (s *AnswerStore) LoadProgress(ctx context.Context, userID string) (domain.ProgressState, error) {
	remote, remoteOK := s.loadRemote(ctx, userID)

	local, err := s.readLocal(ctx, userID)
	if err != nil {
		if !remoteOK {
			return domain.ProgressState{}, err
		}
		log.Warn().Err(err).Str("user_id", userID).Msg("local progress cache unavailable, using remote only")
		return s.tracker.Progress(remote), nil
	}
	if !remoteOK {
		return s.tracker.Progress(local.records), nil
	}

	live := make([]domain.AnswerRecord, 0, len(remote)+len(local.records))
	for _, record := range remote {
		// Remote records from before a pending clear were discarded by the user.
		if local.clearedAt.IsZero() || record.AnsweredAt.After(local.clearedAt) {
			live = append(live, record)
		}
	}
	progress := s.tracker.Progress(append(live, local.records...))

	clearedAt := s.reconcileRemote(ctx, userID, remote, progress, local.clearedAt)
	if err := s.writeLocal(ctx, userID, progress, clearedAt); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("refresh local progress cache")
	}
	return progress, nil
}

func (s *AnswerStore) loadRemote(ctx context.Context, userID string) ([]domain.AnswerRecord, bool) {
	if s.Degraded() {
		return nil, false
	}
	remoteCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	records, err := s.remote.LoadAnswers(remoteCtx, userID)
	if err != nil {
		s.degrade(userID, "load_answers", err)
		return nil, false
	}
	return records, true
}

// reconcileRemote applies a pending local clear to the remote and then saves every
// merged record the remote does not already hold. It returns the clear marker that
// is still pending, which is zero once the remote has caught up.
func (s *AnswerStore) reconcileRemote(ctx context.Context, userID string, remote []domain.AnswerRecord, progress domain.ProgressState, clearedAt time.Time) time.Time {
	stored := make(map[int64]domain.AnswerRecord, len(remote))
	if clearedAt.IsZero() {
		for _, record := range remote {
			stored[record.QuestionID] = record
		}
	} else if err := s.remoteCall(ctx, func(c context.Context) error { return s.remote.DeleteAnswers(c, userID) }); err != nil {
		s.degrade(userID, "delete_answers", err)
		return clearedAt
	}

	for _, record := range progress.Records() {
		if existing, ok := stored[record.QuestionID]; ok && sameRecord(existing, record) {
			continue
		}
		if err := s.remoteCall(ctx, func(c context.Context) error { return s.remote.SaveAnswer(c, record) }); err != nil {
			s.degrade(userID, "save_answer", err)
			return clearedAt
		}
	}
	return time.Time{}
}

func sameRecord(a, b domain.AnswerRecord) bool {
	return a.SubmittedAnswer == b.SubmittedAnswer && a.IsCorrect == b.IsCorrect && a.AnsweredAt.Equal(b.AnsweredAt)
}

// remoteCall bounds one remote call by the store timeout. The call is detached from
// the caller so an ended session does not abort a write halfway.
func (s *AnswerStore) remoteCall(ctx context.Context, call func(context.Context) error) error {
	remoteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	return call(remoteCtx)
}

// RecordAnswer grades the submission by exact match against the canonical answer and
// persists it. A remote failure degrades the store without failing the call; only a
// local cache failure is reported, as domain.ErrPersistence.
func (s *AnswerStore) RecordAnswer(ctx context.Context, userID string, questionID int64, submitted string, timeTakenSeconds int) (domain.AnswerRecord, error) {
	question, ok := s.tracker.Question(questionID)
	if !ok {
		return domain.AnswerRecord{}, domain.ErrQuestionNotFound
	}
	if timeTakenSeconds < 0 {
		timeTakenSeconds = 0
	}
	record := domain.AnswerRecord{
		UserID:           userID,
		QuestionID:       questionID,
		SubmittedAnswer:  submitted,
		IsCorrect:        submitted == question.CanonicalAnswer,
		TimeTakenSeconds: timeTakenSeconds,
		AnsweredAt:       s.now().UTC().Truncate(time.Millisecond),
	}

	if !s.Degraded() {
		if err := s.remoteCall(ctx, func(c context.Context) error { return s.remote.SaveAnswer(c, record) }); err != nil {
			s.degrade(userID, "save_answer", err)
		}
	}

	local, err := s.readLocal(ctx, userID)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	progress := s.tracker.Apply(s.tracker.Progress(local.records), record)
	if err := s.writeLocal(ctx, userID, progress, local.clearedAt); err != nil {
		return domain.AnswerRecord{}, err
	}
	return record, nil
}

// ClearProgress removes the user's records from both stores. The remote delete is
// attempted even when degraded; if it fails, the local entry keeps a clear marker so
// the next healthy load drops the stale remote records. Clearing an already empty
// user is a no-op.
func (s *AnswerStore) ClearProgress(ctx context.Context, userID string) error {
	clearedAt := s.now().UTC().Truncate(time.Millisecond)
	if s.remote != nil {
		if err := s.remoteCall(ctx, func(c context.Context) error { return s.remote.DeleteAnswers(c, userID) }); err != nil {
			s.degrade(userID, "delete_answers", err)
			return s.writeLocal(ctx, userID, s.tracker.Progress(nil), clearedAt)
		}
	}
	if err := s.local.Remove(ctx, LocalProgressKey(userID)); err != nil {
		return fmt.Errorf("%w: remove local progress: %w", domain.ErrPersistence, err)
	}
	return nil
}

// SaveProfile records the display name used on the leaderboard. Best effort.
func (s *AnswerStore) SaveProfile(ctx context.Context, userID, displayName string) {
	if displayName == "" || s.Degraded() {
		return
	}
	remoteCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.remote.SaveProfile(remoteCtx, userID, displayName); err != nil {
		s.degrade(userID, "save_profile", err)
	}
}

// localEntry is the decoded local cache entry. A non-zero clearedAt marks a clear
// that the remote store has not seen yet.
type localEntry struct {
	records   []domain.AnswerRecord
	clearedAt time.Time
}

func (s *AnswerStore) readLocal(ctx context.Context, userID string) (localEntry, error) {
	raw, found, err := s.local.Get(ctx, LocalProgressKey(userID))
	if err != nil {
		return localEntry{}, fmt.Errorf("%w: read local progress: %w", domain.ErrPersistence, err)
	}
	if !found {
		return localEntry{}, nil
	}
	entry, err := decodeLocalProgress(userID, raw)
	if err != nil {
		// A corrupt entry is replaced on the next write rather than blocking the session.
		log.Warn().Err(err).Str("user_id", userID).Msg("discarding unreadable local progress")
		return localEntry{}, nil
	}
	return entry, nil
}

func (s *AnswerStore) writeLocal(ctx context.Context, userID string, progress domain.ProgressState, clearedAt time.Time) error {
	raw, err := encodeLocalProgress(progress, clearedAt)
	if err != nil {
		return fmt.Errorf("%w: encode local progress: %w", domain.ErrPersistence, err)
	}
	if err := s.local.Set(ctx, LocalProgressKey(userID), raw); err != nil {
		return fmt.Errorf("%w: write local progress: %w", domain.ErrPersistence, err)
	}
	return nil
}

// LocalProgressKey is the local cache key for a user's progress entry.
func LocalProgressKey(userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return "progress:" + userID
}

type localProgress struct {
	CurrentOrdinal       int                   `json:"currentOrdinal"`
	Answers              map[int64]localAnswer `json:"answers"`
	CompletedQuestionIDs []int64               `json:"completedQuestionIds"`
	ClearedAtMs          int64                 `json:"clearedAtMs,omitempty"`
}

type localAnswer struct {
	Answer           string `json:"answer"`
	IsCorrect        bool   `json:"isCorrect"`
	TimestampMs      int64  `json:"timestampMs"`
	TimeTakenSeconds int    `json:"timeTakenSeconds,omitempty"`
}

func encodeLocalProgress(progress domain.ProgressState, clearedAt time.Time) ([]byte, error) {
	entry := localProgress{
		CurrentOrdinal:       progress.CurrentOrdinal,
		Answers:              make(map[int64]localAnswer, len(progress.AnswersByQuestion)),
		CompletedQuestionIDs: progress.CompletedQuestionIDs,
	}
	if !clearedAt.IsZero() {
		entry.ClearedAtMs = clearedAt.UnixMilli()
	}
	if entry.CompletedQuestionIDs == nil {
		entry.CompletedQuestionIDs = []int64{}
	}
	for id, record := range progress.AnswersByQuestion {
		entry.Answers[id] = localAnswer{
			Answer:           record.SubmittedAnswer,
			IsCorrect:        record.IsCorrect,
			TimestampMs:      record.AnsweredAt.UnixMilli(),
			TimeTakenSeconds: record.TimeTakenSeconds,
		}
	}
	return json.Marshal(entry)
}

func decodeLocalProgress(userID string, raw []byte) (localEntry, error) {
	var entry localProgress
	if err := json.Unmarshal(raw, &entry); err != nil {
		return localEntry{}, err
	}
	records := make([]domain.AnswerRecord, 0, len(entry.Answers))
	for id, answer := range entry.Answers {
		records = append(records, domain.AnswerRecord{
			UserID:           userID,
			QuestionID:       id,
			SubmittedAnswer:  answer.Answer,
			IsCorrect:        answer.IsCorrect,
			TimeTakenSeconds: answer.TimeTakenSeconds,
			AnsweredAt:       time.UnixMilli(answer.TimestampMs).UTC(),
		})
	}
	decoded := localEntry{records: records}
	if entry.ClearedAtMs != 0 {
		decoded.clearedAt = time.UnixMilli(entry.ClearedAtMs).UTC()
	}
	return decoded, nil
}

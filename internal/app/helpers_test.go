package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"morse-quiz-service/internal/app"
	"morse-quiz-service/internal/domain"
	"morse-quiz-service/internal/infra/memory"
)

var errRemoteDown = errors.New("remote unreachable")

// flakyRemote wraps the in-memory remote with switchable failures.
type flakyRemote struct {
	*memory.AnswerStore

	mu         sync.Mutex
	failLoad   bool
	failSave   bool
	failDelete bool
	saveCalls  int
}

func newFlakyRemote() *flakyRemote {
	return &flakyRemote{AnswerStore: memory.NewAnswerStore()}
}

func (f *flakyRemote) LoadAnswers(ctx context.Context, userID string) ([]domain.AnswerRecord, error) {
	f.mu.Lock()
	fail := f.failLoad
	f.mu.Unlock()
	if fail {
		return nil, errRemoteDown
	}
	return f.AnswerStore.LoadAnswers(ctx, userID)
}

func (f *flakyRemote) SaveAnswer(ctx context.Context, record domain.AnswerRecord) error {
	f.mu.Lock()
	f.saveCalls++
	fail := f.failSave
	f.mu.Unlock()
	if fail {
		return errRemoteDown
	}
	return f.AnswerStore.SaveAnswer(ctx, record)
}

func (f *flakyRemote) DeleteAnswers(ctx context.Context, userID string) error {
	f.mu.Lock()
	fail := f.failDelete
	f.mu.Unlock()
	if fail {
		return errRemoteDown
	}
	return f.AnswerStore.DeleteAnswers(ctx, userID)
}

func (f *flakyRemote) saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCalls
}

// blockingRemote holds SaveAnswer until released.
type blockingRemote struct {
	*memory.AnswerStore
	started chan struct{}
	release chan struct{}
}

func newBlockingRemote() *blockingRemote {
	return &blockingRemote{
		AnswerStore: memory.NewAnswerStore(),
		started:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
}

func (b *blockingRemote) SaveAnswer(ctx context.Context, record domain.AnswerRecord) error {
	b.started <- struct{}{}
	<-b.release
	return b.AnswerStore.SaveAnswer(ctx, record)
}

// hangingRemote never answers; calls return only when their context expires.
type hangingRemote struct {
	*memory.AnswerStore
}

func (hangingRemote) LoadAnswers(ctx context.Context, _ string) ([]domain.AnswerRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingRemote) SaveAnswer(ctx context.Context, _ domain.AnswerRecord) error {
	<-ctx.Done()
	return ctx.Err()
}

// unreadableCache fails every read, like a node-local redis that is down.
type unreadableCache struct {
	*memory.ProgressCache
}

func (unreadableCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

// brokenCache fails every write, like a device out of storage.
type brokenCache struct {
	*memory.ProgressCache
}

func (brokenCache) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func twoQuestionCatalog() []domain.Question {
	return []domain.Question{
		{ID: 1, Ordinal: 1, Prompt: "A", CanonicalAnswer: ".-"},
		{ID: 2, Ordinal: 2, Prompt: "S", CanonicalAnswer: "..."},
	}
}

func newService(questions []domain.Question, remote app.RemoteStore, local app.LocalCache) *app.QuizService {
	catalog := memory.NewCatalogRepository(memory.NewStaticQuestionLoader(questions), time.Minute)
	return app.NewQuizService(memory.NewSessionStore(), catalog, remote, local, time.Second)
}

// typeAnswer enters a Morse string through the input buffer.
func typeAnswer(s *app.Session, code string) {
	_ = s.ClearInput()
	for _, r := range code {
		switch r {
		case '.':
			_ = s.AppendDot()
		case '-':
			_ = s.AppendDash()
		case ' ':
			_ = s.AppendSeparator()
		}
	}
}

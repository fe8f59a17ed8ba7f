package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"morse-quiz-service/internal/domain"
)

// QuestionLoader fetches the question catalog from a backing store (e.g. Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// CatalogRepository caches the catalog with a TTL to avoid repeated backing-store reads.
// Failed loads are not cached.
type CatalogRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
}

func NewCatalogRepository(loader QuestionLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) Questions(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.cached(r.clock()); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		now := r.clock()
		if questions, ok := r.cached(now); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.questions = questions
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *CatalogRepository) cached(now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.questions != nil && r.expiresAt.After(now) {
		return r.questions, true
	}
	return nil, false
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader serves a fixed catalog (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(l.questions))
	copy(out, l.questions)
	return out, nil
}

// MorseQuestions is the default competition catalog.
func MorseQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Ordinal: 1, Prompt: "What is the morse code for the letter 'A'?", CanonicalAnswer: ".-"},
		{ID: 2, Ordinal: 2, Prompt: "What is the morse code for the letter 'S'?", CanonicalAnswer: "..."},
		{ID: 3, Ordinal: 3, Prompt: "What is the morse code for the letter 'O'?", CanonicalAnswer: "---"},
		{ID: 4, Ordinal: 4, Prompt: "What is the morse code for 'SOS'?", CanonicalAnswer: "...---..."},
		{ID: 5, Ordinal: 5, Prompt: "What is the morse code for the number '1'?", CanonicalAnswer: ".----"},
	}
}

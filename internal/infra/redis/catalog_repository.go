package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"morse-quiz-service/internal/domain"
)

// QuestionLoader fetches the question catalog from a backing store (e.g. Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

const catalogKey = "morse:catalog"

// CatalogRepository caches the catalog in a Redis hash and falls back to a loader on a miss.
// Questions are stored as: HSET morse:catalog {questionID} {question JSON}
type CatalogRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) Questions(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.fromCache(ctx); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.fromCache(ctx); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		pipe := r.client.Pipeline()
		for _, q := range questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, err
			}
			pipe.HSet(ctx, catalogKey, strconv.FormatInt(q.ID, 10), raw)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, catalogKey, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Msg("populate catalog cache")
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// fromCache treats a Redis error or an unreadable entry as a miss.
func (r *CatalogRepository) fromCache(ctx context.Context) ([]domain.Question, bool) {
	fields, err := r.client.HGetAll(ctx, catalogKey).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	questions := make([]domain.Question, 0, len(fields))
	for _, raw := range fields {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, false
		}
		questions = append(questions, q)
	}
	return questions, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

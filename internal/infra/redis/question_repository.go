package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-service/internal/domain"
	"quiz-service/internal/infra/memory"
)

// QuestionRepository caches question banks in Redis and falls back to a loader on cache miss.
// A bank is stored as JSON under quiz:bank:{bank}.
type QuestionRepository struct {
	client redis.UniversalClient
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionRepository(client redis.UniversalClient, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, bank string) ([]domain.Question, error) {
	if questions, ok := r.cached(ctx, bank); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(bank, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx, bank); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, bank)
		if err != nil {
			return nil, err
		}
		if questions == nil {
			questions = []domain.Question{}
		}

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("encode bank: %w", err)
		}
		if err := r.client.Set(ctx, r.key(bank), data, r.ttlWithJitter()).Err(); err != nil {
			slog.WarnContext(ctx, "quiz: cache question bank failed", "bank", bank, "error", err)
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) cached(ctx context.Context, bank string) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, r.key(bank)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "quiz: read cached question bank failed", "bank", bank, "error", err)
		}
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		slog.WarnContext(ctx, "quiz: decode cached question bank failed", "bank", bank, "error", err)
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) key(bank string) string {
	return "quiz:bank:" + bank
}

// ttlWithJitter returns 0 (no expiry) for a non-positive ttl.
func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}

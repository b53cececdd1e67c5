package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-engine/internal/pkg/apperrors"

	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "ingestion:job:"

var ErrJobNotFound = fmt.Errorf("ingestion job %w", apperrors.ErrNotFound)

type StatusStore interface {
	Save(ctx context.Context, result JobResult) error
	Get(ctx context.Context, jobID string) (*JobResult, error)
}

// redisClient is the subset of *redis.Client the store uses.
type redisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

var _ redisClient = (*redis.Client)(nil)

type RedisStatusStore struct {
	client redisClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisStatusStore(client redisClient, ttl time.Duration, logger *slog.Logger) *RedisStatusStore {
	return &RedisStatusStore{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "RedisStatusStore"),
	}
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

func (s *RedisStatusStore) Save(ctx context.Context, result JobResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}
	if err := s.client.Set(ctx, jobKey(result.JobID), payload, s.ttl).Err(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store job status", "job_id", result.JobID, "error", err)
		return fmt.Errorf("failed to store job %s status: %w", result.JobID, err)
	}
	return nil
}

func (s *RedisStatusStore) Get(ctx context.Context, jobID string) (*JobResult, error) {
	raw, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to read job status", "job_id", jobID, "error", err)
		return nil, fmt.Errorf("failed to read job %s status: %w", jobID, err)
	}

	var result JobResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode job %s status: %w", jobID, err)
	}
	return &result, nil
}

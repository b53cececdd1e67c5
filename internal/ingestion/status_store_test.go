package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"loan-engine/internal/pkg/apperrors"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedisClient struct {
	mock.Mock
}

func (m *mockRedisClient) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewStatusResult(args.String(0), args.Error(1))
}

func (m *mockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return redis.NewStringResult(args.String(0), args.Error(1))
}

func TestRedisStatusStore_Save(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedisClient)
	store := NewRedisStatusStore(client, time.Hour, discardLogger)

	result := JobResult{JobID: "abc", Kind: KindLoans, State: StateSucceeded, Ingested: 3}
	client.On("Set", ctx, "ingestion:job:abc", mock.MatchedBy(func(v any) bool {
		var decoded JobResult
		return json.Unmarshal(v.([]byte), &decoded) == nil && decoded.Ingested == 3
	}), time.Hour).Return("OK", nil).Once()

	require.NoError(t, store.Save(ctx, result))
	client.AssertExpectations(t)
}

func TestRedisStatusStore_SaveError(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedisClient)
	store := NewRedisStatusStore(client, time.Hour, discardLogger)
	client.On("Set", ctx, "ingestion:job:abc", mock.Anything, time.Hour).Return("", errors.New("READONLY"))

	assert.ErrorContains(t, store.Save(ctx, JobResult{JobID: "abc"}), "READONLY")
}

func TestRedisStatusStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a stored result", func(t *testing.T) {
		client := new(mockRedisClient)
		store := NewRedisStatusStore(client, time.Hour, discardLogger)
		client.On("Get", ctx, "ingestion:job:abc").
			Return(`{"job_id":"abc","kind":"customers","state":"failed","summary":"Failed: boom"}`, nil)

		got, err := store.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, StateFailed, got.State)
		assert.True(t, got.Terminal())
		assert.Equal(t, "Failed: boom", got.Summary)
	})

	t.Run("missing key is not found", func(t *testing.T) {
		client := new(mockRedisClient)
		store := NewRedisStatusStore(client, time.Hour, discardLogger)
		client.On("Get", ctx, "ingestion:job:nope").Return("", redis.Nil)

		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrJobNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/cache"
)

type mockStore struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) *goredis.StringCmd {
	if m.getErr != nil {
		return goredis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *mockStore) Set(_ context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	if m.setErr != nil {
		return goredis.NewStatusResult("", m.setErr)
	}
	m.data[key] = string(value.([]byte))
	m.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func TestRedisEvaluationCache_SetThenGet(t *testing.T) {
	store := newMockStore()
	c := cache.NewRedisEvaluationCache(store, "credwise:evaluation:", 15*time.Minute)

	require.NoError(t, c.Set(context.Background(), "eval-1", []byte(`{"id":"eval-1"}`)))

	assert.Equal(t, `{"id":"eval-1"}`, store.data["credwise:evaluation:eval-1"])
	assert.Equal(t, 15*time.Minute, store.ttls["credwise:evaluation:eval-1"])

	got, err := c.Get(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"eval-1"}`, string(got))
}

func TestRedisEvaluationCache_Miss(t *testing.T) {
	c := cache.NewRedisEvaluationCache(newMockStore(), "p:", time.Minute)

	_, err := c.Get(context.Background(), "unknown")

	assert.ErrorIs(t, err, port.ErrCacheMiss)
}

func TestRedisEvaluationCache_Errors(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("READONLY")
	c := cache.NewRedisEvaluationCache(store, "p:", time.Minute)

	_, err := c.Get(context.Background(), "eval-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, port.ErrCacheMiss)
	assert.ErrorContains(t, err, "connection refused")

	assert.ErrorContains(t, c.Set(context.Background(), "eval-1", []byte("{}")), "READONLY")
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-gpt-api/internal/config"
	"movie-gpt-api/internal/domain/entity"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb, &config.RedisConfig{SessionTTL: time.Hour}), mr
}

func TestHistoryStore_AppendRecent(t *testing.T) {
	c, mr := newTestClient(t)
	s := NewHistoryStore(c, 4)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "s1",
		entity.NewChatTurn(entity.RoleUser, "q1"),
		entity.NewChatTurn(entity.RoleAssistant, "a1"),
	))
	require.NoError(t, s.Append(ctx, "s1",
		entity.NewChatTurn(entity.RoleUser, "q2"),
		entity.NewChatTurn(entity.RoleAssistant, "a2"),
		entity.NewChatTurn(entity.RoleUser, "q3"),
	))

	all, err := s.Recent(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a1", all[0].Content)
	assert.Equal(t, "q3", all[3].Content)
	assert.Equal(t, entity.RoleUser, all[3].Role)

	last, err := s.Recent(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "a2", last[0].Content)

	assert.Equal(t, time.Hour, mr.TTL(SessionKey("s1")))
}

func TestHistoryStore_EmptyAndClear(t *testing.T) {
	c, mr := newTestClient(t)
	s := NewHistoryStore(c, 0)
	ctx := context.Background()

	turns, err := s.Recent(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)

	require.NoError(t, s.Append(ctx, "s2", entity.NewChatTurn(entity.RoleUser, "hello")))
	require.NoError(t, s.Append(ctx, "s2"))
	assert.True(t, mr.Exists(SessionKey("s2")))

	require.NoError(t, s.Clear(ctx, "s2"))
	assert.False(t, mr.Exists(SessionKey("s2")))
}

func TestHistoryStore_DefaultTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewHistoryStore(NewClientFromRedis(rdb, nil), 0)
	require.NoError(t, s.Append(context.Background(), "s3", entity.NewChatTurn(entity.RoleUser, "x")))
	assert.Equal(t, 24*time.Hour, mr.TTL(SessionKey("s3")))
}

func TestHistoryStore_SkipsCorruptEntries(t *testing.T) {
	c, mr := newTestClient(t)
	_, err := mr.RPush(SessionKey("s4"), "not-json")
	require.NoError(t, err)

	s := NewHistoryStore(c, 0)
	require.NoError(t, s.Append(context.Background(), "s4", entity.NewChatTurn(entity.RoleUser, "ok")))

	turns, err := s.Recent(context.Background(), "s4", 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "ok", turns[0].Content)
}

func TestRateLimiter_Allow(t *testing.T) {
	c, _ := newTestClient(t)
	l := NewRateLimiter(c)
	ctx := context.Background()
	key := BuildRateLimitKey("127.0.0.1", "/v1/chat/messages")

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := l.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, BuildRateLimitKey("10.0.0.2", "/v1/chat/messages"), 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHealthCheck(t *testing.T) {
	c, _ := newTestClient(t)
	assert.NoError(t, c.HealthCheck(context.Background()))
}

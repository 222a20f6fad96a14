package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"movie-gpt-api/internal/domain/entity"
	"movie-gpt-api/internal/domain/repository"
)

const defaultSessionTTL = 24 * time.Hour

// HistoryStore 会话历史，每个会话一个 list，元素为 JSON 编码的 ChatTurn
type HistoryStore struct {
	client     *Client
	maxEntries int
	ttl        time.Duration
}

var _ repository.ChatHistoryRepository = (*HistoryStore)(nil)

// NewHistoryStore maxEntries <= 0 表示不裁剪
func NewHistoryStore(client *Client, maxEntries int) *HistoryStore {
	ttl := client.config.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &HistoryStore{client: client, maxEntries: maxEntries, ttl: ttl}
}

// SessionKey 会话历史键
func SessionKey(sessionID string) string {
	return "chat:session:" + sessionID
}

func (s *HistoryStore) Append(ctx context.Context, sessionID string, turns ...entity.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}
	key := SessionKey(sessionID)
	ctx, span := tracer.Start(ctx, "redis.HistoryAppend",
		trace.WithAttributes(
			attribute.String("redis.key", key),
			attribute.Int("turns", len(turns)),
		))
	defer span.End()

	values := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode chat turn: %w", err)
		}
		values = append(values, b)
	}

	pipe := s.client.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, key, int64(-s.maxEntries), -1)
	}
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("append chat history: %w", err)
	}
	return nil
}

func (s *HistoryStore) Recent(ctx context.Context, sessionID string, limit int) ([]entity.ChatTurn, error) {
	key := SessionKey(sessionID)
	ctx, span := tracer.Start(ctx, "redis.HistoryRecent",
		trace.WithAttributes(attribute.String("redis.key", key)))
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := s.client.rdb.LRange(ctx, key, start, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read chat history: %w", err)
	}

	turns := make([]entity.ChatTurn, 0, len(raw))
	for _, r := range raw {
		var t entity.ChatTurn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	key := SessionKey(sessionID)
	ctx, span := tracer.Start(ctx, "redis.HistoryClear",
		trace.WithAttributes(attribute.String("redis.key", key)))
	defer span.End()

	if err := s.client.rdb.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}

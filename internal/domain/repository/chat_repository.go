package repository

import (
	"context"
	"time"

	"movie-gpt-api/internal/domain/entity"
)

// ChatUsageEventRepository 用量台账
type ChatUsageEventRepository interface {
	Create(ctx context.Context, event *entity.ChatUsageEvent) error
	List(ctx context.Context, sessionID string, page Pagination) ([]*entity.ChatUsageEvent, int64, error)
	Summarize(ctx context.Context, startInclusive, endExclusive time.Time) ([]*entity.UsageSummary, error)
}

// ChatHistoryRepository 会话历史存储
type ChatHistoryRepository interface {
	Append(ctx context.Context, sessionID string, turns ...entity.ChatTurn) error
	// Recent 按时间正序返回最近 limit 条
	Recent(ctx context.Context, sessionID string, limit int) ([]entity.ChatTurn, error)
	Clear(ctx context.Context, sessionID string) error
}

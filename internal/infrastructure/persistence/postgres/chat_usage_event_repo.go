package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"movie-gpt-api/internal/domain/entity"
	"movie-gpt-api/internal/domain/repository"
)

// ChatUsageEventRepository 用量台账仓储
type ChatUsageEventRepository struct {
	client *Client
}

var _ repository.ChatUsageEventRepository = (*ChatUsageEventRepository)(nil)

func NewChatUsageEventRepository(client *Client) *ChatUsageEventRepository {
	return &ChatUsageEventRepository{client: client}
}

// Create 主键为空时生成 UUID
func (r *ChatUsageEventRepository) Create(ctx context.Context, event *entity.ChatUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatUsageEventRepository.Create")
	defer span.End()

	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	if err := r.client.db.WithContext(ctx).Create(event).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chat usage event: %w", err)
	}
	return nil
}

// List 按时间倒序分页；sessionID 为空时不过滤
func (r *ChatUsageEventRepository) List(ctx context.Context, sessionID string, page repository.Pagination) ([]*entity.ChatUsageEvent, int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatUsageEventRepository.List")
	defer span.End()

	q := r.client.db.WithContext(ctx).Model(&entity.ChatUsageEvent{})
	if sid := strings.TrimSpace(sessionID); sid != "" {
		q = q.Where("session_id = ?", sid)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to count chat usage events: %w", err)
	}

	var events []*entity.ChatUsageEvent
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.PageSize).Find(&events).Error; err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to list chat usage events: %w", err)
	}
	return events, total, nil
}

// Summarize 统计 [start, end) 内各币种的请求数、token 与成本
func (r *ChatUsageEventRepository) Summarize(ctx context.Context, startInclusive, endExclusive time.Time) ([]*entity.UsageSummary, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatUsageEventRepository.Summarize")
	defer span.End()

	var out []*entity.UsageSummary
	err := r.client.db.WithContext(ctx).
		Model(&entity.ChatUsageEvent{}).
		Select("currency, COUNT(*) AS requests, " +
			"COALESCE(SUM(input_tokens),0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens),0) AS output_tokens, " +
			"COALESCE(SUM(cost),0) AS cost").
		Where("created_at >= ? AND created_at < ?", startInclusive, endExclusive).
		Group("currency").
		Order("currency").
		Scan(&out).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to summarize chat usage: %w", err)
	}
	return out, nil
}

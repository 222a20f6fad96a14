// Package quota 记录问答用量台账
package quota

import (
	"context"
	"fmt"
	"strings"

	"movie-gpt-api/internal/domain/entity"
	"movie-gpt-api/internal/domain/repository"
	"movie-gpt-api/internal/domain/service"
)

// UsageRecorder 将估算用量写入台账，repo 为 nil 时不记录
type UsageRecorder struct {
	usageRepo repository.ChatUsageEventRepository
}

var _ service.ChatUsageRecorder = (*UsageRecorder)(nil)

func NewUsageRecorder(usageRepo repository.ChatUsageEventRepository) *UsageRecorder {
	return &UsageRecorder{usageRepo: usageRepo}
}

func (r *UsageRecorder) Record(ctx context.Context, in service.ChatUsageInput) error {
	if r == nil || r.usageRepo == nil {
		return nil
	}
	if in.InputTokens < 0 || in.OutputTokens < 0 || in.Cost < 0 {
		return fmt.Errorf("invalid chat usage")
	}

	return r.usageRepo.Create(ctx, &entity.ChatUsageEvent{
		SessionID:      strings.TrimSpace(in.SessionID),
		Classification: strings.TrimSpace(in.Classification),
		Provider:       strings.TrimSpace(in.Provider),
		Model:          strings.TrimSpace(in.Model),
		InputTokens:    in.InputTokens,
		OutputTokens:   in.OutputTokens,
		Cost:           in.Cost,
		Currency:       strings.TrimSpace(in.Currency),
		Degraded:       in.Degraded,
		DurationMs:     in.Duration.Milliseconds(),
	})
}

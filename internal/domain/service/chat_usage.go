package service

import (
	"context"
	"time"
)

// ChatUsageInput 一次问答的估算用量与成本。
// 位于 domain/service，作为应用层与持久化层之间的稳定契约（port）。
type ChatUsageInput struct {
	SessionID      string
	Classification string

	Provider string
	Model    string

	InputTokens  int
	OutputTokens int
	Cost         float64
	Currency     string

	Degraded bool
	Duration time.Duration
}

// ChatUsageRecorder 记录问答用量。
// 约定：实现应为 best-effort，错误只返回给调用方记录日志，不影响回答。
type ChatUsageRecorder interface {
	Record(ctx context.Context, in ChatUsageInput) error
}

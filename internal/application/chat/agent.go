// Package chat 实现电影问答流程：分类 -> 检索 -> 构建 prompt -> 补全 -> 用量估算
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"movie-gpt-api/internal/application/retrieval"
	"movie-gpt-api/internal/config"
	"movie-gpt-api/internal/domain/entity"
	"movie-gpt-api/internal/domain/service"
	"movie-gpt-api/pkg/logger"
	"movie-gpt-api/pkg/metrics"
	"movie-gpt-api/pkg/tracer"
)

// Options 问答流程参数
type Options struct {
	TopK             int
	HistoryTurns     int
	MaxOverviewRunes int
	FailurePolicy    config.RetrievalFailurePolicy
	// CompletionTimeout 为 0 时只受调用方 ctx 约束
	CompletionTimeout time.Duration

	// Provider/Model 仅用于用量台账与指标标签
	Provider string
	Model    string
}

// OptionsFromConfig 从配置构建 Options
func OptionsFromConfig(cfg *config.Config) Options {
	provider := cfg.LLM.DefaultProvider
	return Options{
		TopK:              cfg.Chat.TopK,
		HistoryTurns:      cfg.Chat.HistoryTurns,
		MaxOverviewRunes:  cfg.Chat.MaxOverviewRunes,
		FailurePolicy:     cfg.Chat.RetrievalFailurePolicy,
		CompletionTimeout: cfg.Chat.Timeouts.Completion,
		Provider:          provider,
		Model:             cfg.LLM.Providers[provider].Model,
	}
}

// AnswerInput 单次提问
type AnswerInput struct {
	SessionID string
	Question  string
	// History 按时间正序，超出 HistoryTurns 的部分会被丢弃
	History []entity.ChatTurn
}

// Answer 问答结果
type Answer struct {
	Text           string
	Classification Classification
	// Trace 面向用户的检索过程说明
	Trace []string
	// Retrieval nil 表示未执行检索
	Retrieval *retrieval.Result
	Usage     Usage
	Degraded  bool
	Duration  time.Duration
}

// Agent 问答编排器，无共享可变状态，可并发使用
type Agent struct {
	classifier Classifier
	retriever  Retriever
	prompts    *PromptBuilder
	completer  Completer
	estimator  UsageEstimator
	recorder   service.ChatUsageRecorder
	opts       Options
}

// NewAgent recorder 可为 nil
func NewAgent(
	classifier Classifier,
	retriever Retriever,
	prompts *PromptBuilder,
	completer Completer,
	estimator UsageEstimator,
	recorder service.ChatUsageRecorder,
	opts Options,
) *Agent {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.PolicyDegrade
	}
	return &Agent{
		classifier: classifier,
		retriever:  retriever,
		prompts:    prompts,
		completer:  completer,
		estimator:  estimator,
		recorder:   recorder,
		opts:       opts,
	}
}

// Answer 对 IN_DOMAIN 问题恰好执行一次检索与一次补全，OUT_OF_DOMAIN 问题不检索。
func (a *Agent) Answer(ctx context.Context, in AnswerInput) (*Answer, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "chat.Answer")
	defer span.End()

	class := a.classifier.Classify(question)
	span.SetAttributes(attribute.String("chat.classification", string(class)))

	out := &Answer{
		Classification: class,
		Trace:          []string{"classification: " + string(class)},
	}
	promptIn := PromptInput{
		Question:       question,
		Classification: class,
	}
	workflow := service.WorkflowRefusal

	if class == InDomain {
		workflow = service.WorkflowMovieAnswer
		promptIn.History = a.recentHistory(in.History)

		res, err := a.retriever.Retrieve(ctx, question, a.opts.TopK)
		if err != nil {
			var rerr *retrieval.RetrievalError
			if !errors.As(err, &rerr) || a.opts.FailurePolicy == config.PolicyAbort {
				a.fail(ctx, span, class, err)
				return nil, err
			}
			logger.Warn(ctx, "retrieval failed, answering without movie data",
				"stage", string(rerr.Stage), "error", err.Error())
			out.Degraded = true
			promptIn.RetrievalUnavailable = true
			out.Trace = append(out.Trace,
				fmt.Sprintf("retrieval failed at %s stage; answering without movie data", rerr.Stage))
		} else {
			rendered := retrieval.RenderWithLimit(res, a.opts.MaxOverviewRunes)
			out.Retrieval = res
			promptIn.Retrieval = rendered
			out.Trace = append(out.Trace,
				fmt.Sprintf("retrieved %d movies (top_k=%d)", res.Len(), a.opts.TopK),
				rendered)
		}
	} else {
		out.Trace = append(out.Trace, "retrieval skipped: question is not about movies")
	}

	prompt := a.prompts.Build(promptIn)

	text, err := a.complete(service.WithWorkflowProvider(ctx, workflow, a.opts.Provider), prompt)
	if err != nil {
		a.fail(ctx, span, class, err)
		return nil, err
	}

	out.Text = text
	out.Usage = a.estimator.Estimate(prompt, text)
	out.Duration = time.Since(start)

	a.observe(ctx, in.SessionID, out)
	span.SetAttributes(
		attribute.Int("chat.input_tokens", out.Usage.InputTokens),
		attribute.Int("chat.output_tokens", out.Usage.OutputTokens),
		attribute.Bool("chat.degraded", out.Degraded),
	)
	return out, nil
}

func (a *Agent) complete(ctx context.Context, prompt string) (string, error) {
	if a.opts.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.CompletionTimeout)
		defer cancel()
	}
	text, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		var cerr *CompletionError
		if errors.As(err, &cerr) {
			return "", err
		}
		return "", &CompletionError{Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &CompletionError{Err: ErrEmptyCompletion}
	}
	return text, nil
}

// recentHistory 保留最近 HistoryTurns 轮（每轮一问一答）
func (a *Agent) recentHistory(h []entity.ChatTurn) []entity.ChatTurn {
	if a.opts.HistoryTurns <= 0 || len(h) == 0 {
		return nil
	}
	limit := a.opts.HistoryTurns * 2
	if len(h) > limit {
		h = h[len(h)-limit:]
	}
	return h
}

func (a *Agent) fail(ctx context.Context, span trace.Span, class Classification, err error) {
	metrics.ChatRequestsTotal.WithLabelValues(string(class), "error").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Error(ctx, "answer failed", err, "classification", string(class))
}

// observe 记录指标与用量台账，台账写入失败只记日志
func (a *Agent) observe(ctx context.Context, sessionID string, out *Answer) {
	status := "ok"
	if out.Degraded {
		status = "degraded"
	}
	metrics.ChatRequestsTotal.WithLabelValues(string(out.Classification), status).Inc()
	metrics.ChatDuration.WithLabelValues(string(out.Classification)).Observe(out.Duration.Seconds())
	metrics.ChatEstimatedTokens.WithLabelValues("input").Add(float64(out.Usage.InputTokens))
	metrics.ChatEstimatedTokens.WithLabelValues("output").Add(float64(out.Usage.OutputTokens))
	metrics.ChatEstimatedCost.WithLabelValues(out.Usage.Currency).Add(out.Usage.Cost)

	logger.Info(ctx, "question answered",
		"classification", string(out.Classification),
		"degraded", out.Degraded,
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
		"cost", out.Usage.Cost,
		"elapsed_ms", out.Duration.Milliseconds(),
	)

	if a.recorder == nil {
		return
	}
	err := a.recorder.Record(ctx, service.ChatUsageInput{
		SessionID:      sessionID,
		Classification: string(out.Classification),
		Provider:       a.opts.Provider,
		Model:          a.opts.Model,
		InputTokens:    out.Usage.InputTokens,
		OutputTokens:   out.Usage.OutputTokens,
		Cost:           out.Usage.Cost,
		Currency:       out.Usage.Currency,
		Degraded:       out.Degraded,
		Duration:       out.Duration,
	})
	if err != nil {
		logger.Warn(ctx, "record chat usage failed", "error", err.Error())
	}
}

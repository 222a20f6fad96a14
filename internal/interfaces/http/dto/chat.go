package dto

import (
	"time"

	"movie-gpt-api/internal/application/chat"
	"movie-gpt-api/internal/domain/entity"
)

// ChatRequest 提问请求，session_id 为空时由服务端生成
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question" binding:"required"`
}

// UsageResponse 近似用量
type UsageResponse struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	Currency     string  `json:"currency"`
}

// MovieSource 回答引用的电影
type MovieSource struct {
	Title string  `json:"title"`
	Year  string  `json:"year"`
	Score float64 `json:"score"`
}

// ChatResponse 提问响应
type ChatResponse struct {
	SessionID      string        `json:"session_id"`
	Answer         string        `json:"answer"`
	Classification string        `json:"classification"`
	Trace          []string      `json:"trace"`
	Sources        []MovieSource `json:"sources,omitempty"`
	Usage          UsageResponse `json:"usage"`
	Degraded       bool          `json:"degraded"`
	DurationMs     int64         `json:"duration_ms"`
}

// ToChatResponse 转换问答结果
func ToChatResponse(sessionID string, a *chat.Answer) *ChatResponse {
	resp := &ChatResponse{
		SessionID:      sessionID,
		Answer:         a.Text,
		Classification: string(a.Classification),
		Trace:          a.Trace,
		Usage: UsageResponse{
			InputTokens:  a.Usage.InputTokens,
			OutputTokens: a.Usage.OutputTokens,
			Cost:         a.Usage.Cost,
			Currency:     a.Usage.Currency,
		},
		Degraded:   a.Degraded,
		DurationMs: a.Duration.Milliseconds(),
	}
	if resp.Trace == nil {
		resp.Trace = []string{}
	}
	if a.Retrieval != nil {
		for _, m := range a.Retrieval.Movies {
			resp.Sources = append(resp.Sources, MovieSource{Title: m.Title, Year: m.Year, Score: m.Score})
		}
	}
	return resp
}

// ChatMessageResponse 会话中的一条消息
type ChatMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionHistoryResponse 会话历史
type SessionHistoryResponse struct {
	SessionID string                 `json:"session_id"`
	Messages  []*ChatMessageResponse `json:"messages"`
}

// ToSessionHistoryResponse 转换会话历史
func ToSessionHistoryResponse(sessionID string, turns []entity.ChatTurn) *SessionHistoryResponse {
	resp := &SessionHistoryResponse{
		SessionID: sessionID,
		Messages:  make([]*ChatMessageResponse, 0, len(turns)),
	}
	for _, t := range turns {
		resp.Messages = append(resp.Messages, &ChatMessageResponse{
			Role:      string(t.Role),
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	return resp
}

// UsageEventResponse 台账记录
type UsageEventResponse struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	Classification string    `json:"classification"`
	Model          string    `json:"model"`
	InputTokens    int       `json:"input_tokens"`
	OutputTokens   int       `json:"output_tokens"`
	Cost           float64   `json:"cost"`
	Currency       string    `json:"currency"`
	Degraded       bool      `json:"degraded"`
	DurationMs     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToUsageEventResponses 转换台账记录
func ToUsageEventResponses(events []*entity.ChatUsageEvent) []*UsageEventResponse {
	out := make([]*UsageEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, &UsageEventResponse{
			ID:             e.ID,
			SessionID:      e.SessionID,
			Classification: e.Classification,
			Model:          e.Model,
			InputTokens:    e.InputTokens,
			OutputTokens:   e.OutputTokens,
			Cost:           e.Cost,
			Currency:       e.Currency,
			Degraded:       e.Degraded,
			DurationMs:     e.DurationMs,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}

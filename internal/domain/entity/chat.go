// Package entity 定义领域实体
package entity

import "time"

// Role 对话角色枚举
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn 会话中的一条消息
type ChatTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChatTurn 创建消息，时间取当前 UTC
func NewChatTurn(role Role, content string) ChatTurn {
	return ChatTurn{Role: role, Content: content, CreatedAt: time.Now().UTC()}
}

// ChatUsageEvent 一次问答的用量台账记录
type ChatUsageEvent struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID      string    `json:"session_id" gorm:"type:varchar(64);index"`
	Classification string    `json:"classification" gorm:"type:varchar(16);not null"`
	Provider       string    `json:"provider" gorm:"type:varchar(32);not null"`
	Model          string    `json:"model" gorm:"type:varchar(64);not null"`
	InputTokens    int       `json:"input_tokens" gorm:"not null"`
	OutputTokens   int       `json:"output_tokens" gorm:"not null"`
	Cost           float64   `json:"cost" gorm:"type:numeric(16,6);not null"`
	Currency       string    `json:"currency" gorm:"type:varchar(8);not null"`
	Degraded       bool      `json:"degraded" gorm:"not null"`
	DurationMs     int64     `json:"duration_ms" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (ChatUsageEvent) TableName() string {
	return "chat_usage_events"
}

// UsageSummary 时间窗口内按币种汇总的用量
type UsageSummary struct {
	Currency     string  `json:"currency"`
	Requests     int64   `json:"requests"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

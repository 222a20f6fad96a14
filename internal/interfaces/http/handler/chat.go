package handler

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"movie-gpt-api/internal/application/chat"
	"movie-gpt-api/internal/application/retrieval"
	"movie-gpt-api/internal/domain/entity"
	"movie-gpt-api/internal/domain/repository"
	"movie-gpt-api/internal/interfaces/http/dto"
	"movie-gpt-api/pkg/errors"
	"movie-gpt-api/pkg/logger"
)

// DefaultMaxQuestionRunes 问题最大字符数
const DefaultMaxQuestionRunes = 5000

const maxSessionIDLen = 64

// Answerer 问答编排
type Answerer interface {
	Answer(ctx context.Context, in chat.AnswerInput) (*chat.Answer, error)
}

// ChatHandlerOptions 问答接口参数
type ChatHandlerOptions struct {
	MaxQuestionRunes int
	// HistoryTurns 读取最近多少轮历史传给编排器，0 表示不读取
	HistoryTurns int
}

// ChatHandler 电影问答处理器
type ChatHandler struct {
	agent   Answerer
	history repository.ChatHistoryRepository
	opts    ChatHandlerOptions
}

// NewChatHandler history 可为 nil，此时会话不保存历史
func NewChatHandler(agent Answerer, history repository.ChatHistoryRepository, opts ChatHandlerOptions) *ChatHandler {
	if opts.MaxQuestionRunes <= 0 {
		opts.MaxQuestionRunes = DefaultMaxQuestionRunes
	}
	return &ChatHandler{agent: agent, history: history, opts: opts}
}

// SendMessage 提问
// @Summary 电影问答
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "问题"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Router /v1/chat/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "question is required")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		dto.BadRequest(c, "question is required")
		return
	}
	if utf8.RuneCountInString(question) > h.opts.MaxQuestionRunes {
		dto.BadRequest(c, fmt.Sprintf("question must not exceed %d characters", h.opts.MaxQuestionRunes))
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if !validSessionID(sessionID) {
		dto.BadRequest(c, "invalid session_id")
		return
	}

	ctx := logger.WithContext(c.Request.Context(), logger.SessionIDKey, sessionID)
	history := h.loadHistory(ctx, sessionID)

	answer, err := h.agent.Answer(ctx, chat.AnswerInput{
		SessionID: sessionID,
		Question:  question,
		History:   history,
	})
	if err != nil {
		dto.AbortWithAppError(c, mapAnswerError(err))
		return
	}

	if h.history != nil {
		if err := h.history.Append(ctx, sessionID,
			entity.NewChatTurn(entity.RoleUser, question),
			entity.NewChatTurn(entity.RoleAssistant, answer.Text),
		); err != nil {
			logger.Warn(ctx, "failed to save chat history", "error", err.Error())
		}
	}

	dto.Success(c, dto.ToChatResponse(sessionID, answer))
}

// GetHistory 查询会话历史
// @Summary 会话历史
// @Tags Chat
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionHistoryResponse]
// @Router /v1/chat/sessions/{sid}/messages [get]
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sid")
	if !validSessionID(sessionID) {
		dto.BadRequest(c, "invalid session id")
		return
	}
	if h.history == nil {
		dto.ServiceUnavailable(c, "chat history is not enabled")
		return
	}

	turns, err := h.history.Recent(c.Request.Context(), sessionID, 0)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to load chat history", err, "session_id", sessionID)
		dto.AbortWithAppError(c, errors.Wrap(err, errors.CodeCacheError, "failed to load chat history"))
		return
	}
	dto.Success(c, dto.ToSessionHistoryResponse(sessionID, turns))
}

// ClearHistory 清空会话历史
// @Summary 清空会话
// @Tags Chat
// @Param sid path string true "会话 ID"
// @Success 204
// @Router /v1/chat/sessions/{sid} [delete]
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	sessionID := c.Param("sid")
	if !validSessionID(sessionID) {
		dto.BadRequest(c, "invalid session id")
		return
	}
	if h.history == nil {
		dto.ServiceUnavailable(c, "chat history is not enabled")
		return
	}

	if err := h.history.Clear(c.Request.Context(), sessionID); err != nil {
		logger.Error(c.Request.Context(), "failed to clear chat history", err, "session_id", sessionID)
		dto.AbortWithAppError(c, errors.Wrap(err, errors.CodeCacheError, "failed to clear chat history"))
		return
	}
	dto.NoContent(c)
}

// loadHistory 历史读取失败不影响本次问答
func (h *ChatHandler) loadHistory(ctx context.Context, sessionID string) []entity.ChatTurn {
	if h.history == nil || h.opts.HistoryTurns <= 0 {
		return nil
	}
	turns, err := h.history.Recent(ctx, sessionID, h.opts.HistoryTurns*2)
	if err != nil {
		logger.Warn(ctx, "failed to load chat history", "error", err.Error())
		return nil
	}
	return turns
}

// mapAnswerError 只暴露错误类别与阶段，上游原始报错只进日志
func mapAnswerError(err error) *errors.AppError {
	var rerr *retrieval.RetrievalError
	var cerr *chat.CompletionError
	switch {
	case stderrors.Is(err, chat.ErrEmptyQuestion):
		return errors.ErrInvalidParam.WithDetail("question is required")
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ErrTimeout
	case stderrors.As(err, &rerr):
		return errors.ErrRetrievalFailed.WithDetail("stage: " + string(rerr.Stage))
	case stderrors.As(err, &cerr):
		if stderrors.Is(err, chat.ErrEmptyCompletion) {
			return errors.ErrCompletionFailed.WithDetail("empty answer")
		}
		return errors.ErrCompletionFailed
	default:
		return errors.ErrInternalError
	}
}

func validSessionID(s string) bool {
	if s == "" || len(s) > maxSessionIDLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

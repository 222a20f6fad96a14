package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"movie-gpt-api/internal/domain/repository"
	"movie-gpt-api/internal/interfaces/http/dto"
	"movie-gpt-api/pkg/errors"
	"movie-gpt-api/pkg/logger"
)

// UsageHandler 用量台账查询
type UsageHandler struct {
	repo repository.ChatUsageEventRepository
	now  func() time.Time
}

// NewUsageHandler repo 为 nil 时接口返回 503
func NewUsageHandler(repo repository.ChatUsageEventRepository) *UsageHandler {
	return &UsageHandler{repo: repo, now: time.Now}
}

// ListEvents 分页查询台账
// @Summary 用量明细
// @Tags Usage
// @Produce json
// @Param session_id query string false "会话 ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Router /v1/usage/events [get]
func (h *UsageHandler) ListEvents(c *gin.Context) {
	if h.repo == nil {
		dto.ServiceUnavailable(c, "usage ledger is not enabled")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := repository.NewPagination(page, pageSize)

	events, total, err := h.repo.List(c.Request.Context(), c.Query("session_id"), pagination)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list usage events", err)
		dto.AbortWithAppError(c, errors.Wrap(err, errors.CodeDatabaseError, "failed to list usage events"))
		return
	}

	dto.SuccessWithPage(c, dto.ToUsageEventResponses(events),
		dto.NewPageMeta(pagination.Page, pagination.PageSize, int(total)))
}

// Summary 按币种汇总时间窗口内的用量，默认最近 24 小时
// @Summary 用量汇总
// @Tags Usage
// @Produce json
// @Param since query string false "起始时间 RFC3339"
// @Param until query string false "结束时间 RFC3339"
// @Router /v1/usage/summary [get]
func (h *UsageHandler) Summary(c *gin.Context) {
	if h.repo == nil {
		dto.ServiceUnavailable(c, "usage ledger is not enabled")
		return
	}

	end := h.now().UTC()
	if v := c.Query("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			dto.BadRequest(c, "until must be RFC3339")
			return
		}
		end = t
	}
	start := end.Add(-24 * time.Hour)
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			dto.BadRequest(c, "since must be RFC3339")
			return
		}
		start = t
	}
	if !start.Before(end) {
		dto.BadRequest(c, "since must be before until")
		return
	}

	summary, err := h.repo.Summarize(c.Request.Context(), start, end)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to summarize usage", err)
		dto.AbortWithAppError(c, errors.Wrap(err, errors.CodeDatabaseError, "failed to summarize usage"))
		return
	}
	dto.Success(c, summary)
}

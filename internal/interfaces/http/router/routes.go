package router

import (
	"github.com/gin-gonic/gin"

	"movie-gpt-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由，处理器为 nil 时跳过对应分组
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	chatHandler *handler.ChatHandler,
	usageHandler *handler.UsageHandler,
) {
	if chatHandler != nil {
		chat := v1.Group("/chat")
		{
			chat.POST("/messages", chatHandler.SendMessage)
			chat.GET("/sessions/:sid/messages", chatHandler.GetHistory)
			chat.DELETE("/sessions/:sid", chatHandler.ClearHistory)
		}
	}

	if usageHandler != nil {
		usage := v1.Group("/usage")
		{
			usage.GET("/events", usageHandler.ListEvents)
			usage.GET("/summary", usageHandler.Summary)
		}
	}
}

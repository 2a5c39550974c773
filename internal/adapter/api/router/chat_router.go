package router

import (
	"github.com/labstack/echo/v4"

	"joblink/internal/adapter/api/handler"
	"joblink/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("", chatHandler.CreateChat)                  // POST /v1/chats - open a conversation
	chatGroup.GET("", chatHandler.GetUserChats)                 // GET /v1/chats - room list with previews
	chatGroup.GET("/:id", chatHandler.GetChatByID)              // GET /v1/chats/:id - full history, marks seen
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages) // GET /v1/chats/:id/messages - paged, read-only
	chatGroup.DELETE("/:id", chatHandler.DeleteChat)            // DELETE /v1/chats/:id
}

package router

import (
	"github.com/labstack/echo/v4"

	"joblink/internal/adapter/api/handler"
	"joblink/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	chatHandler *handler.ChatHandler,
	adminHandler *handler.AdminHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
) {
	SetupChatRouter(e, chatHandler, authMiddleware)
	SetupAdminRouter(e, adminHandler, authMiddleware, adminMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}

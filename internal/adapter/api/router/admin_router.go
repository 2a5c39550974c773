package router

import (
	"github.com/labstack/echo/v4"

	"joblink/internal/adapter/api/handler"
	"joblink/internal/adapter/api/middleware"
)

// SetupAdminRouter wires the back-office support endpoints. All routes
// require authentication and the admin role.
func SetupAdminRouter(e *echo.Echo, adminHandler *handler.AdminHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("/chats", adminHandler.GetSupportChats)
	admin.GET("/chats/:userId", adminHandler.GetSupportChat)
}

package router

import (
	"github.com/labstack/echo/v4"

	"joblink/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes. Auth happens inside the
// handler via the token query parameter, not through middleware.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}

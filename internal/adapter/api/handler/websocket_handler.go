package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"joblink/internal/adapter/api/middleware"
	ws "joblink/internal/infrastructure/websocket"
	"joblink/pkg/errors"
	"joblink/pkg/logger"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
	}
}

// HandleWebSocket authenticates the caller via the token query parameter and
// upgrades the connection. Each connection gets its own session id so a user
// reconnecting from another tab does not collide with the old socket.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		SessionID: uuid.New().String(),
		UserID:    userID,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}

	logger.Info("WebSocket connected: user=%s session=%s", client.UserID, client.SessionID)

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}

package handler

import (
	"github.com/labstack/echo/v4"

	"joblink/internal/usecase"
	"joblink/pkg/response"
)

type AdminHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewAdminHandler(chatUseCase *usecase.ChatUseCase) *AdminHandler {
	return &AdminHandler{
		chatUseCase: chatUseCase,
	}
}

// GetSupportChats lists every support room for the back office.
func (h *AdminHandler) GetSupportChats(c echo.Context) error {
	adminID := c.Get("uid").(string)

	summaries, err := h.chatUseCase.AdminRooms(c.Request().Context(), adminID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summaries)
}

// GetSupportChat returns one user's support room history.
func (h *AdminHandler) GetSupportChat(c echo.Context) error {
	adminID := c.Get("uid").(string)
	userID := c.Param("userId")

	history, err := h.chatUseCase.SupportRoomHistory(c.Request().Context(), adminID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, history)
}

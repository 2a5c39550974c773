package handler

import (
	"github.com/labstack/echo/v4"

	"joblink/internal/usecase"
	"joblink/pkg/response"
	"joblink/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

// CreateChat creates (or returns) the room between the caller and the
// recipient.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	room, err := h.chatUseCase.CreateRoom(c.Request().Context(), userID, req.RecipientID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, room)
}

// GetUserChats lists the caller's rooms with previews and unread counts.
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID := c.Get("uid").(string)

	summaries, err := h.chatUseCase.RoomSummaries(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summaries)
}

// GetChatByID returns the full history of one room and marks it seen.
func (h *ChatHandler) GetChatByID(c echo.Context) error {
	roomID := c.Param("id")
	userID := c.Get("uid").(string)

	history, err := h.chatUseCase.RoomHistory(c.Request().Context(), userID, roomID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, history)
}

// GetChatMessages returns a page of messages without touching seen state.
func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	roomID := c.Param("id")
	userID := c.Get("uid").(string)

	params := utils.GetPaginationParams(c)

	messages, total, err := h.chatUseCase.Messages(c.Request().Context(), userID, roomID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, params.Page, params.PageSize)
}

// DeleteChat removes a room and soft-deletes its messages.
func (h *ChatHandler) DeleteChat(c echo.Context) error {
	roomID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.DeleteRoom(c.Request().Context(), userID, roomID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Chat deleted"})
}

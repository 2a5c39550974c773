package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"joblink/internal/domain/entity"
	apperrors "joblink/pkg/errors"
	"joblink/pkg/logger"
)

// HandleClientMessage decodes one inbound frame and routes it to its
// handler. Every handler answers failures on the invoking session only;
// nothing propagates back into the read loop.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.sendError(client, apperrors.BadRequest("invalid message format", err))
		return
	}

	switch msg.Event {
	case EventHeartbeat:
		m.handleHeartbeat(client, msg.Data)
	case EventJoinRoom:
		m.handleJoinRoom(client, msg.Data)
	case EventLeaveRoom:
		m.handleLeaveRoom(client, msg.Data)
	case EventRequestChatRooms:
		m.handleRequestChatRooms(client, msg.Data)
	case EventSingleChatRoom:
		m.handleSingleChatRoom(client, msg.Data)
	case EventSendMessage:
		m.handleSendMessage(client, msg.Data)
	case EventDeleteMessage:
		m.handleDeleteMessage(client, msg.Data)
	case EventUpdateMessage:
		m.handleUpdateMessage(client, msg.Data)
	case EventTyping:
		m.handleTyping(client, msg.Data)
	case EventDeleteChatRoom:
		m.handleDeleteChatRoom(client, msg.Data)
	case EventCreateChatRoom:
		m.handleCreateChatRoom(client, msg.Data)
	case EventAdminChatRoom:
		m.handleAdminChatRoom(client, msg.Data)
	case EventMessageToAdmin:
		m.handleMessageToAdmin(client, msg.Data)
	case EventAdminMessageToUser:
		m.handleAdminMessageToUser(client, msg.Data)
	case EventFileChunk:
		m.handleFileChunk(client, msg.Data)
	default:
		m.sendError(client, apperrors.BadRequest("unknown event: "+msg.Event, nil))
	}
}

// decode unmarshals a payload into out and runs struct validation, so every
// handler works on a checked, typed payload instead of a raw map.
func (m *Manager) decode(data interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return apperrors.BadRequest("invalid payload", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.BadRequest("invalid payload", err)
	}
	if err := m.validate.Struct(out); err != nil {
		return apperrors.BadRequest("invalid payload: "+err.Error(), err)
	}
	return nil
}

// identity reconciles the id a payload claims with the authenticated
// connection. An empty claim falls back to the session's user.
func (m *Manager) identity(client *Client, claimed string) (string, error) {
	if client.UserID == "" {
		return "", apperrors.Unauthorized("authentication required", nil)
	}
	if claimed != "" && claimed != client.UserID {
		return "", apperrors.Unauthorized("user id does not match session", nil)
	}
	return client.UserID, nil
}

func (m *Manager) handleHeartbeat(client *Client, data interface{}) {
	var payload HeartbeatPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	online := m.presence.Heartbeat(userID, client.SessionID)
	m.Broadcast(EventGetOnlineUsers, online)
}

func (m *Manager) handleJoinRoom(client *Client, data interface{}) {
	var payload JoinRoomPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	if err := m.chat.VerifyParticipant(context.Background(), userID, payload.ChatRoomID); err != nil {
		m.sendError(client, err)
		return
	}

	m.focus.Join(userID, client.SessionID, payload.ChatRoomID)

	notice := RoomPresenceNotice{ChatRoomID: payload.ChatRoomID, UserID: userID}
	for _, other := range m.focus.UsersInRoom(payload.ChatRoomID, userID) {
		m.SendToUser(other, EventJoinedRoom, notice)
	}
	m.SendToSession(client.SessionID, EventJoinedRoom, notice)
}

func (m *Manager) handleLeaveRoom(client *Client, data interface{}) {
	var payload LeaveRoomPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	if err := m.focus.Leave(userID, client.SessionID, payload.ChatRoomID); err != nil {
		m.sendError(client, err)
		return
	}

	m.notifyRoomLeft(payload.ChatRoomID, userID)
	m.SendToSession(client.SessionID, EventLeftRoom, RoomPresenceNotice{ChatRoomID: payload.ChatRoomID, UserID: userID})
}

func (m *Manager) notifyRoomLeft(roomID, userID string) {
	notice := RoomPresenceNotice{ChatRoomID: roomID, UserID: userID}
	for _, other := range m.focus.UsersInRoom(roomID, userID) {
		m.SendToUser(other, EventLeftRoom, notice)
	}
}

func (m *Manager) handleRequestChatRooms(client *Client, data interface{}) {
	var payload RequestChatRoomsPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	summaries, err := m.chat.RoomSummaries(context.Background(), userID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventChatRoomsResponse, StatusResponse{
		Status: http.StatusOK,
		Data:   summaries,
		Count:  len(summaries),
	})
}

func (m *Manager) handleSingleChatRoom(client *Client, data interface{}) {
	var payload SingleChatRoomPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	history, err := m.chat.RoomHistory(context.Background(), userID, payload.ChatRoomID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventChatRoomResponse, StatusResponse{
		Status: http.StatusOK,
		Data:   history,
	})
}

func (m *Manager) handleSendMessage(client *Client, data interface{}) {
	var payload SendMessagePayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	senderID, err := m.identity(client, payload.SenderID)
	if err != nil {
		m.sendError(client, err)
		return
	}
	if payload.Text == "" && len(payload.Files) == 0 {
		m.sendError(client, apperrors.BadRequest("message needs text or files", nil))
		return
	}

	files := make([]entity.FileDescriptor, 0, len(payload.Files))
	for _, f := range payload.Files {
		files = append(files, entity.FileDescriptor{URL: f.URL, Name: f.Name, MimeType: f.MimeType})
	}

	message, err := m.chat.Send(context.Background(), SendInput{
		SenderID:    senderID,
		RecipientID: payload.RecipientID,
		Text:        payload.Text,
		ReplyToID:   payload.ReplyTo,
		Files:       files,
	})
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventMessageSent, message)
}

func (m *Manager) handleDeleteMessage(client *Client, data interface{}) {
	var payload DeleteMessagePayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	message, err := m.chat.DeleteMessage(context.Background(), userID, payload.MessageID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventDeleteNotification, message)
}

func (m *Manager) handleUpdateMessage(client *Client, data interface{}) {
	var payload UpdateMessagePayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	message, _, err := m.chat.EditMessage(context.Background(), userID, payload.MessageID, payload.NewText)
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventUpdateNotification, message)
}

func (m *Manager) handleTyping(client *Client, data interface{}) {
	var payload TypingPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	if err := m.chat.VerifyParticipant(context.Background(), userID, payload.ChatRoomID); err != nil {
		m.sendError(client, err)
		return
	}

	if payload.IsTyping {
		notice := TypingNotification{ChatRoomID: payload.ChatRoomID, UserID: userID, IsTyping: true}
		for _, other := range m.focus.UsersInRoom(payload.ChatRoomID, userID) {
			m.SendToUser(other, EventTypingNotification, notice)
		}
	}

	// The trailing "stopped" notice fires only after the debounce window of
	// silence, regardless of the isTyping value received here.
	m.typing.Touch(payload.ChatRoomID, userID)
}

func (m *Manager) typingStopped(roomID, userID string) {
	notice := TypingNotification{ChatRoomID: roomID, UserID: userID, IsTyping: false}
	for _, other := range m.focus.UsersInRoom(roomID, userID) {
		m.SendToUser(other, EventTypingNotification, notice)
	}
}

func (m *Manager) handleDeleteChatRoom(client *Client, data interface{}) {
	var payload DeleteChatRoomPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	if err := m.chat.DeleteRoom(context.Background(), userID, payload.ChatRoomID); err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventChatRoomDeleted, RoomPresenceNotice{ChatRoomID: payload.ChatRoomID, UserID: userID})
}

func (m *Manager) handleCreateChatRoom(client *Client, data interface{}) {
	var payload CreateChatRoomPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	room, err := m.chat.CreateRoom(context.Background(), userID, payload.OtherUserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventChatRoomCreated, room)
}

// handleAdminChatRoom serves double duty: an admin announcing themselves goes
// on duty; a regular user gets their support room history (created lazily).
func (m *Manager) handleAdminChatRoom(client *Client, data interface{}) {
	var payload AdminChatRoomPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	userID, err := m.identity(client, payload.UserID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	user, err := m.users.GetByID(context.Background(), userID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	if user.IsAdmin() {
		m.presence.LoginAsAdmin(userID, client.SessionID)
		m.SendToSession(client.SessionID, EventAdminChatRoom, StatusResponse{Status: http.StatusOK})
		return
	}

	history, err := m.chat.AdminRoomHistory(context.Background(), userID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventAdminChatRoom, StatusResponse{
		Status: http.StatusOK,
		Data:   history,
	})
}

func (m *Manager) adminDutyExpired(userID, sessionID string) {
	logger.Info("ws: admin %s duty window expired", userID)
	m.SendToSession(sessionID, EventAdminDutyExpired, map[string]bool{"isAvailable": false})
}

func (m *Manager) handleMessageToAdmin(client *Client, data interface{}) {
	var payload MessageToAdminPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	senderID, err := m.identity(client, payload.SenderID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	message, err := m.chat.SendToAdmin(context.Background(), senderID, payload.Text)
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventMessageSent, message)
}

func (m *Manager) handleAdminMessageToUser(client *Client, data interface{}) {
	var payload AdminMessageToUserPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	adminID, err := m.identity(client, payload.SenderID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	message, err := m.chat.AdminSendToUser(context.Background(), adminID, payload.UserID, payload.Text)
	if err != nil {
		m.sendError(client, err)
		return
	}

	m.SendToSession(client.SessionID, EventMessageSent, message)
}

func (m *Manager) handleFileChunk(client *Client, data interface{}) {
	var payload FileChunkPayload
	if err := m.decode(data, &payload); err != nil {
		m.sendError(client, err)
		return
	}
	senderID, err := m.identity(client, payload.SenderID)
	if err != nil {
		m.sendError(client, err)
		return
	}

	descriptor, err := m.uploads.AddChunk(context.Background(), payload)
	if err != nil {
		m.sendError(client, err)
		return
	}
	if descriptor == nil {
		return // waiting on more chunks
	}

	m.SendToSession(client.SessionID, EventFileUploadComplete, descriptor)
	if payload.RecipientID != "" && payload.RecipientID != senderID {
		m.SendToUser(payload.RecipientID, EventFileUploadComplete, descriptor)
	}
}

// sendError maps an error onto the invoking session. Internal errors are
// logged with full detail and leave the process with a generic message.
func (m *Manager) sendError(client *Client, err error) {
	var appErr *apperrors.AppError
	if e, ok := err.(*apperrors.AppError); ok {
		appErr = e
	} else {
		appErr = apperrors.Internal("unexpected error", err)
	}

	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("ws: session %s: %s: %v", client.SessionID, appErr.Code, appErr.Err)
		m.SendToSession(client.SessionID, EventErrorNotification, ErrorNotification{
			Code:  appErr.Code,
			Error: "An unexpected error occurred",
		})
		return
	}

	m.SendToSession(client.SessionID, EventErrorNotification, ErrorNotification{
		Code:  appErr.Code,
		Error: appErr.Message,
	})
}

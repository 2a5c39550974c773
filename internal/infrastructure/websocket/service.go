package websocket

import (
	"context"

	"joblink/internal/domain/entity"
)

// SendInput carries everything needed to append a message to a conversation.
type SendInput struct {
	SenderID    string
	RecipientID string
	Text        string
	ReplyToID   string
	Files       []entity.FileDescriptor
}

// ChatService is the slice of the chat use case the dispatcher needs. The
// implementation owns persistence and all cross-participant pushes; handlers
// here only answer the invoking session.
type ChatService interface {
	RoomSummaries(ctx context.Context, userID string) ([]*entity.RoomSummary, error)
	RoomHistory(ctx context.Context, userID, roomID string) (*entity.RoomHistory, error)
	VerifyParticipant(ctx context.Context, userID, roomID string) error
	Send(ctx context.Context, in SendInput) (*entity.Message, error)
	DeleteMessage(ctx context.Context, requesterID, messageID string) (*entity.Message, error)
	EditMessage(ctx context.Context, requesterID, messageID, newText string) (*entity.Message, bool, error)
	DeleteRoom(ctx context.Context, requesterID, roomID string) error
	CreateRoom(ctx context.Context, userID, otherUserID string) (*entity.ChatRoom, error)
	AdminRoomHistory(ctx context.Context, userID string) (*entity.RoomHistory, error)
	SendToAdmin(ctx context.Context, senderID, text string) (*entity.Message, error)
	AdminSendToUser(ctx context.Context, adminID, userID, text string) (*entity.Message, error)
}

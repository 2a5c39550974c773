package repository

import (
	"context"

	"joblink/internal/domain/entity"
)

type ChatRepository interface {
	// Room methods. CreateRoom must fail with Conflict when a room with the
	// same id already exists, so concurrent first contact between a pair is
	// resolved by the storage layer.
	CreateRoom(ctx context.Context, room *entity.ChatRoom) error
	GetRoomByID(ctx context.Context, id string) (*entity.ChatRoom, error)
	ListRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error)
	ListAdminRooms(ctx context.Context) ([]*entity.ChatRoom, error)
	AddRoomUser(ctx context.Context, roomID, userID string) error
	DeleteRoom(ctx context.Context, id string) error

	// Message methods.
	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessageByID(ctx context.Context, id string) (*entity.Message, error)
	UpdateMessage(ctx context.Context, message *entity.Message) error
	ListMessagesByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error)
	LatestMessage(ctx context.Context, roomID string) (*entity.Message, error)
	CountUnseen(ctx context.Context, roomID, recipientID string) (int64, error)
	MarkRoomSeen(ctx context.Context, roomID, recipientID string) (int, error)
	SoftDeleteRoomMessages(ctx context.Context, roomID string) error
}

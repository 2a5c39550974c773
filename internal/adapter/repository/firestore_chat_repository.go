package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"joblink/internal/domain/entity"
	"joblink/internal/domain/repository"
	"joblink/pkg/errors"
)

// Rooms live in "chatRooms" keyed by their deterministic ids; messages live
// in a flat "messages" collection so a message can be found by id alone.
type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) rooms() *firestore.CollectionRef {
	return r.client.Collection("chatRooms")
}

func (r *firestoreChatRepository) messages() *firestore.CollectionRef {
	return r.client.Collection("messages")
}

// CreateRoom relies on Firestore's create precondition for uniqueness: the
// loser of a concurrent create for the same pair sees AlreadyExists, mapped
// to Conflict so the caller can re-read.
func (r *firestoreChatRepository) CreateRoom(ctx context.Context, room *entity.ChatRoom) error {
	_, err := r.rooms().Doc(room.ID).Create(ctx, room)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Chat room already exists", err)
		}
		return errors.Internal("Failed to create chat room", err)
	}
	return nil
}

func (r *firestoreChatRepository) GetRoomByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	doc, err := r.rooms().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat room", err)
		}
		return nil, errors.Internal("Failed to get chat room", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}
	return &room, nil
}

// ListRoomsByUser returns only peer-to-peer rooms; support rooms are served
// through their own lookup.
func (r *firestoreChatRepository) ListRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	query := r.rooms().
		Where("users", "array-contains", userID).
		Where("isForAdmin", "==", false).
		OrderBy("updatedAt", firestore.Desc)

	iter := query.Documents(ctx)
	var rooms []*entity.ChatRoom
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate chat rooms", err)
		}

		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			return nil, errors.Internal("Failed to parse chat room data", err)
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (r *firestoreChatRepository) ListAdminRooms(ctx context.Context) ([]*entity.ChatRoom, error) {
	query := r.rooms().
		Where("isForAdmin", "==", true).
		OrderBy("updatedAt", firestore.Desc)

	iter := query.Documents(ctx)
	var rooms []*entity.ChatRoom
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate admin chat rooms", err)
		}

		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			return nil, errors.Internal("Failed to parse chat room data", err)
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (r *firestoreChatRepository) AddRoomUser(ctx context.Context, roomID, userID string) error {
	_, err := r.rooms().Doc(roomID).Update(ctx, []firestore.Update{
		{Path: "users", Value: firestore.ArrayUnion(userID)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat room", err)
		}
		return errors.Internal("Failed to add room participant", err)
	}
	return nil
}

func (r *firestoreChatRepository) DeleteRoom(ctx context.Context, id string) error {
	_, err := r.rooms().Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete chat room", err)
	}
	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if _, err := r.messages().Doc(message.ID).Set(ctx, message); err != nil {
		return errors.Internal("Failed to create message", err)
	}

	// Bump the room so the room list sorts by recency.
	_, err := r.rooms().Doc(message.ChatRoomID).Update(ctx, []firestore.Update{
		{Path: "updatedAt", Value: message.Timestamp},
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return errors.Internal("Failed to touch chat room", err)
	}
	return nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.messages().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreChatRepository) UpdateMessage(ctx context.Context, message *entity.Message) error {
	_, err := r.messages().Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}
	return nil
}

// ListMessagesByRoom returns messages oldest first. limit<=0 means the full
// history.
func (r *firestoreChatRepository) ListMessagesByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error) {
	base := r.messages().
		Where("chatRoomId", "==", roomID).
		OrderBy("timestamp", firestore.Asc)

	countDocs, err := base.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(countDocs))

	query := base
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

// LatestMessage returns the most recent non-deleted message of a room, or
// NotFound when the room has none.
func (r *firestoreChatRepository) LatestMessage(ctx context.Context, roomID string) (*entity.Message, error) {
	query := r.messages().
		Where("chatRoomId", "==", roomID).
		Where("deleted", "==", false).
		OrderBy("timestamp", firestore.Desc).
		Limit(1)

	doc, err := query.Documents(ctx).Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Message", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get latest message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreChatRepository) CountUnseen(ctx context.Context, roomID, recipientID string) (int64, error) {
	docs, err := r.messages().
		Where("chatRoomId", "==", roomID).
		Where("recipientId", "==", recipientID).
		Where("seen", "==", false).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count unseen messages", err)
	}
	return int64(len(docs)), nil
}

// MarkRoomSeen flips seen on every unseen message addressed to recipientID
// in the room and reports how many were flipped.
func (r *firestoreChatRepository) MarkRoomSeen(ctx context.Context, roomID, recipientID string) (int, error) {
	docs, err := r.messages().
		Where("chatRoomId", "==", roomID).
		Where("recipientId", "==", recipientID).
		Where("seen", "==", false).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to query unseen messages", err)
	}

	for _, doc := range docs {
		if _, err := doc.Ref.Update(ctx, []firestore.Update{{Path: "seen", Value: true}}); err != nil {
			return 0, errors.Internal("Failed to mark message seen", err)
		}
	}

	return len(docs), nil
}

// SoftDeleteRoomMessages flags every message of a room deleted; the records
// stay for audit.
func (r *firestoreChatRepository) SoftDeleteRoomMessages(ctx context.Context, roomID string) error {
	docs, err := r.messages().
		Where("chatRoomId", "==", roomID).
		Documents(ctx).GetAll()
	if err != nil {
		return errors.Internal("Failed to query room messages", err)
	}

	for _, doc := range docs {
		if _, err := doc.Ref.Update(ctx, []firestore.Update{{Path: "deleted", Value: true}}); err != nil {
			return errors.Internal("Failed to soft delete message", err)
		}
	}

	return nil
}

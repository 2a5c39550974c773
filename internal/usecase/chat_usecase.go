package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"joblink/internal/domain/entity"
	"joblink/internal/domain/repository"
	"joblink/internal/infrastructure/ratelimit"
	ws "joblink/internal/infrastructure/websocket"
	"joblink/pkg/errors"
	"joblink/pkg/logger"
)

// ChatUseCase implements the chat room and message operations behind both
// the socket dispatcher and the REST chat endpoints. It owns all
// cross-participant pushes; the dispatcher only answers the invoking session.
type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	wsManager   *ws.Manager
	push        PushSender
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	wsManager *ws.Manager,
	push PushSender,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		wsManager:   wsManager,
		push:        push,
		rateLimiter: rateLimiter,
	}
}

// FindOrCreateRoom resolves the one peer-to-peer room for an unordered pair,
// creating it when absent. The deterministic pair id makes concurrent first
// contact collapse onto one document: the loser of the create race re-reads.
func (uc *ChatUseCase) FindOrCreateRoom(ctx context.Context, userA, userB string) (*entity.ChatRoom, bool, error) {
	if userA == userB {
		return nil, false, errors.BadRequest("cannot open a conversation with yourself", nil)
	}

	roomID := entity.PairRoomID(userA, userB)
	room, err := uc.chatRepo.GetRoomByID(ctx, roomID)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, false, err
	}

	now := time.Now()
	room = &entity.ChatRoom{
		ID:        roomID,
		Users:     []string{userA, userB},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.chatRepo.CreateRoom(ctx, room); err != nil {
		if errors.Is(err, "CONFLICT") {
			room, err = uc.chatRepo.GetRoomByID(ctx, roomID)
			return room, false, err
		}
		return nil, false, err
	}

	return room, true, nil
}

// FindOrCreateAdminRoom resolves the user's single support room. The second
// participant is implicitly the admin pool until a concrete admin replies.
func (uc *ChatUseCase) FindOrCreateAdminRoom(ctx context.Context, userID string) (*entity.ChatRoom, error) {
	roomID := entity.AdminRoomID(userID)
	room, err := uc.chatRepo.GetRoomByID(ctx, roomID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	now := time.Now()
	room = &entity.ChatRoom{
		ID:         roomID,
		Users:      []string{userID},
		IsForAdmin: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.chatRepo.CreateRoom(ctx, room); err != nil {
		if errors.Is(err, "CONFLICT") {
			return uc.chatRepo.GetRoomByID(ctx, roomID)
		}
		return nil, err
	}

	return room, nil
}

// CreateRoom is the explicit "open a conversation" operation. The peer is
// notified live when the room is new.
func (uc *ChatUseCase) CreateRoom(ctx context.Context, userID, otherUserID string) (*entity.ChatRoom, error) {
	if allowed, _ := uc.rateLimiter.Allow(userID, "create_room"); !allowed {
		return nil, errors.TooManyRequests("too many new conversations, slow down")
	}

	if _, err := uc.userRepo.GetByID(ctx, otherUserID); err != nil {
		return nil, errors.NotFound("User", err)
	}

	room, created, err := uc.FindOrCreateRoom(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}

	if created {
		uc.wsManager.SendToUser(otherUserID, ws.EventChatRoomCreated, room)
	}

	return room, nil
}

// RoomSummaries builds the room list: peer profile, latest non-deleted
// message and the caller's unread count. Rooms whose every message is
// deleted (or that have none) stay visible with no preview rather than
// silently disappearing.
func (uc *ChatUseCase) RoomSummaries(ctx context.Context, userID string) ([]*entity.RoomSummary, error) {
	rooms, err := uc.chatRepo.ListRoomsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*entity.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := &entity.RoomSummary{Room: room}

		if otherID := room.OtherParticipant(userID); otherID != "" {
			other, err := uc.userRepo.GetByID(ctx, otherID)
			if err != nil {
				logger.Warn("chat: room %s references unknown user %s: %v", room.ID, otherID, err)
			} else {
				summary.OtherUser = other.Profile()
			}
		}

		last, err := uc.chatRepo.LatestMessage(ctx, room.ID)
		if err != nil && !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
		summary.LastMessage = last

		unseen, err := uc.chatRepo.CountUnseen(ctx, room.ID, userID)
		if err != nil {
			return nil, err
		}
		summary.UnreadCount = unseen

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// VerifyParticipant reports NotFound both for absent rooms and for rooms the
// user is not part of, so membership cannot be probed.
func (uc *ChatUseCase) VerifyParticipant(ctx context.Context, userID, roomID string) error {
	room, err := uc.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(userID) && !(room.IsForAdmin && uc.isAdmin(ctx, userID)) {
		return errors.NotFound("Chat room", nil)
	}
	return nil
}

func (uc *ChatUseCase) isAdmin(ctx context.Context, userID string) bool {
	user, err := uc.userRepo.GetByID(ctx, userID)
	return err == nil && user.IsAdmin()
}

// RoomHistory returns the full ordered history of one room and marks every
// unseen message addressed to the caller as seen. The peer learns about the
// catch-up live unless they are already watching the room.
func (uc *ChatUseCase) RoomHistory(ctx context.Context, userID, roomID string) (*entity.RoomHistory, error) {
	room, err := uc.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) && !(room.IsForAdmin && uc.isAdmin(ctx, userID)) {
		return nil, errors.NotFound("Chat room", nil)
	}

	seen, err := uc.chatRepo.MarkRoomSeen(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}

	messages, _, err := uc.chatRepo.ListMessagesByRoom(ctx, roomID, 0, 0)
	if err != nil {
		return nil, err
	}

	history := &entity.RoomHistory{Room: room, Messages: messages}
	if otherID := room.OtherParticipant(userID); otherID != "" && otherID != entity.AdminRecipient {
		if other, err := uc.userRepo.GetByID(ctx, otherID); err == nil {
			history.OtherUser = other.Profile()

			if seen > 0 {
				focused, _ := uc.wsManager.Focus().FocusedRoom(otherID)
				if focused != roomID {
					uc.wsManager.SendToUser(otherID, ws.EventSeenUpdate, ws.SeenUpdate{
						ChatRoomID: roomID,
						SeenByID:   userID,
						Count:      seen,
					})
				}
			}
		}
	}

	return history, nil
}

// Messages is the paginated REST view over a room's history. It does not
// touch seen flags; only opening the room does.
func (uc *ChatUseCase) Messages(ctx context.Context, userID, roomID string, limit, offset int) ([]*entity.Message, int64, error) {
	if err := uc.VerifyParticipant(ctx, userID, roomID); err != nil {
		return nil, 0, err
	}
	return uc.chatRepo.ListMessagesByRoom(ctx, roomID, limit, offset)
}

// Send appends a message to the sender/recipient conversation, creating the
// room on first contact. The message is born seen only when both parties are
// focused on the room at send time.
func (uc *ChatUseCase) Send(ctx context.Context, in ws.SendInput) (*entity.Message, error) {
	if in.SenderID == "" {
		return nil, errors.Unauthorized("sender identity required", nil)
	}
	if in.RecipientID == "" {
		return nil, errors.BadRequest("recipient is required", nil)
	}
	if allowed, _ := uc.rateLimiter.Allow(in.SenderID, "send_message"); !allowed {
		return nil, errors.TooManyRequests("too many messages, slow down")
	}

	recipient, err := uc.userRepo.GetByID(ctx, in.RecipientID)
	if err != nil {
		return nil, errors.NotFound("Recipient", err)
	}

	room, _, err := uc.FindOrCreateRoom(ctx, in.SenderID, in.RecipientID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ID:          uuid.New().String(),
		ChatRoomID:  room.ID,
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		Text:        in.Text,
		FileURLs:    in.Files,
		Timestamp:   time.Now(),
	}

	// Best effort: a dangling reply id yields a message without a snapshot,
	// not an error.
	if in.ReplyToID != "" {
		original, err := uc.chatRepo.GetMessageByID(ctx, in.ReplyToID)
		if err == nil && original.ChatRoomID == room.ID {
			message.ReplyTo = original.Snapshot()
		} else if err != nil && !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
	}

	focus := uc.wsManager.Focus()
	senderRoom, _ := focus.FocusedRoom(in.SenderID)
	recipientRoom, _ := focus.FocusedRoom(in.RecipientID)
	recipientFocused := recipientRoom == room.ID
	message.Seen = senderRoom == room.ID && recipientFocused

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	uc.deliver(message, recipient, recipientFocused)

	return message, nil
}

// deliver pushes a freshly persisted message to its recipient: live when the
// recipient has the room open, as an out-of-room event when they are online
// elsewhere, and through the notification bridge when they are not watching.
func (uc *ChatUseCase) deliver(message *entity.Message, recipient *entity.User, recipientFocused bool) {
	if recipientFocused {
		uc.wsManager.SendToUser(recipient.ID, ws.EventGetMessage, message)
		return
	}

	uc.wsManager.SendToUser(recipient.ID, ws.EventGetMessageOutside, message)
	uc.notify(message, recipient)
}

// notify invokes the push bridge in the background. Push failure is logged
// and swallowed; message delivery already succeeded.
func (uc *ChatUseCase) notify(message *entity.Message, recipient *entity.User) {
	if uc.push == nil || recipient.PushToken == "" {
		return
	}

	sender, err := uc.userRepo.GetByID(context.Background(), message.SenderID)
	if err != nil {
		logger.Warn("chat: push skipped, sender %s lookup failed: %v", message.SenderID, err)
		return
	}

	go func() {
		data := map[string]string{
			"chatRoomId":  message.ChatRoomID,
			"messageId":   message.ID,
			"timestamp":   message.Timestamp.UTC().Format(time.RFC3339),
			"senderId":    message.SenderID,
			"recipientId": message.RecipientID,
		}
		if err := uc.push.Send(context.Background(), recipient.PushToken, sender.DisplayName, message.Text, data); err != nil {
			logger.Error("chat: push to %s failed: %v", recipient.ID, err)
		}
	}()
}

// SendToAdmin appends a message to the sender's support room. An on-duty
// admin, if any, gets it live; there is no push target for the admin pool.
func (uc *ChatUseCase) SendToAdmin(ctx context.Context, senderID, text string) (*entity.Message, error) {
	if senderID == "" {
		return nil, errors.Unauthorized("sender identity required", nil)
	}
	if allowed, _ := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
		return nil, errors.TooManyRequests("too many messages, slow down")
	}

	room, err := uc.FindOrCreateAdminRoom(ctx, senderID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ID:          uuid.New().String(),
		ChatRoomID:  room.ID,
		SenderID:    senderID,
		RecipientID: entity.AdminRecipient,
		Text:        text,
		Timestamp:   time.Now(),
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if session, ok := uc.wsManager.Presence().FindAdminSession(); ok {
		uc.wsManager.SendToSession(session, ws.EventGetMessage, message)
	}

	return message, nil
}

// AdminSendToUser lets an on-duty admin answer inside a user's support room.
// The replying admin is appended to the room's participants, which is how a
// conversation hands off between admins without a new room.
func (uc *ChatUseCase) AdminSendToUser(ctx context.Context, adminID, userID, text string) (*entity.Message, error) {
	admin, err := uc.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}
	if !admin.IsAdmin() {
		return nil, errors.Forbidden("admin role required", nil)
	}

	recipient, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("Recipient", err)
	}

	room, err := uc.FindOrCreateAdminRoom(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !room.HasParticipant(adminID) {
		if err := uc.chatRepo.AddRoomUser(ctx, room.ID, adminID); err != nil {
			return nil, err
		}
		room.Users = append(room.Users, adminID)
	}

	message := &entity.Message{
		ID:          uuid.New().String(),
		ChatRoomID:  room.ID,
		SenderID:    adminID,
		RecipientID: userID,
		Text:        text,
		Timestamp:   time.Now(),
	}

	focused, _ := uc.wsManager.Focus().FocusedRoom(userID)
	recipientFocused := focused == room.ID
	message.Seen = recipientFocused

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	uc.deliver(message, recipient, recipientFocused)

	return message, nil
}

// AdminRoomHistory returns (and lazily creates) the caller's support room,
// marking messages addressed to them as seen.
func (uc *ChatUseCase) AdminRoomHistory(ctx context.Context, userID string) (*entity.RoomHistory, error) {
	room, err := uc.FindOrCreateAdminRoom(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.chatRepo.MarkRoomSeen(ctx, room.ID, userID); err != nil {
		return nil, err
	}

	messages, _, err := uc.chatRepo.ListMessagesByRoom(ctx, room.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	return &entity.RoomHistory{Room: room, Messages: messages}, nil
}

// SupportRoomHistory is the back-office view of one user's support room. It
// marks the messages addressed to the admin side as seen, not the user's.
func (uc *ChatUseCase) SupportRoomHistory(ctx context.Context, adminID, userID string) (*entity.RoomHistory, error) {
	if !uc.isAdmin(ctx, adminID) {
		return nil, errors.Forbidden("admin role required", nil)
	}

	room, err := uc.FindOrCreateAdminRoom(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.chatRepo.MarkRoomSeen(ctx, room.ID, entity.AdminRecipient); err != nil {
		return nil, err
	}

	messages, _, err := uc.chatRepo.ListMessagesByRoom(ctx, room.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &entity.RoomHistory{Room: room, OtherUser: user.Profile(), Messages: messages}, nil
}

// AdminRooms lists every support room for the back office, newest activity
// first, with the owning user's profile and the unread count on the admin
// side.
func (uc *ChatUseCase) AdminRooms(ctx context.Context, adminID string) ([]*entity.RoomSummary, error) {
	if !uc.isAdmin(ctx, adminID) {
		return nil, errors.Forbidden("admin role required", nil)
	}

	rooms, err := uc.chatRepo.ListAdminRooms(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*entity.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := &entity.RoomSummary{Room: room}

		if len(room.Users) > 0 {
			owner, err := uc.userRepo.GetByID(ctx, room.Users[0])
			if err != nil {
				logger.Warn("chat: admin room %s references unknown user %s: %v", room.ID, room.Users[0], err)
			} else {
				summary.OtherUser = owner.Profile()
			}
		}

		last, err := uc.chatRepo.LatestMessage(ctx, room.ID)
		if err != nil && !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
		summary.LastMessage = last

		unseen, err := uc.chatRepo.CountUnseen(ctx, room.ID, entity.AdminRecipient)
		if err != nil {
			return nil, err
		}
		summary.UnreadCount = unseen

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// DeleteMessage soft-deletes; the record stays for audit and drops out of
// room-list previews. Online peers are told right away.
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, requesterID, messageID string) (*entity.Message, error) {
	message, err := uc.chatRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != requesterID {
		return nil, errors.Forbidden("only the sender can delete a message", nil)
	}

	message.Deleted = true
	if err := uc.chatRepo.UpdateMessage(ctx, message); err != nil {
		return nil, err
	}

	uc.broadcastToRoomPeers(ctx, message.ChatRoomID, requesterID, ws.EventDeleteNotification, message)

	return message, nil
}

// EditMessage updates the text; editing to the identical text succeeds
// without a write or a broadcast.
func (uc *ChatUseCase) EditMessage(ctx context.Context, requesterID, messageID, newText string) (*entity.Message, bool, error) {
	message, err := uc.chatRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, false, err
	}
	if message.SenderID != requesterID {
		return nil, false, errors.Forbidden("only the sender can edit a message", nil)
	}
	if message.Text == newText {
		return message, false, nil
	}

	message.Text = newText
	if err := uc.chatRepo.UpdateMessage(ctx, message); err != nil {
		return nil, false, err
	}

	uc.broadcastToRoomPeers(ctx, message.ChatRoomID, requesterID, ws.EventUpdateNotification, message)

	return message, true, nil
}

// DeleteRoom soft-deletes every message, then hard-deletes the room itself.
func (uc *ChatUseCase) DeleteRoom(ctx context.Context, requesterID, roomID string) error {
	room, err := uc.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(requesterID) {
		return errors.NotFound("Chat room", nil)
	}

	if err := uc.chatRepo.SoftDeleteRoomMessages(ctx, roomID); err != nil {
		return err
	}
	if err := uc.chatRepo.DeleteRoom(ctx, roomID); err != nil {
		return err
	}

	notice := ws.RoomPresenceNotice{ChatRoomID: roomID, UserID: requesterID}
	for _, participant := range room.Users {
		if participant != requesterID {
			uc.wsManager.SendToUser(participant, ws.EventChatRoomDeleted, notice)
		}
	}

	return nil
}

// broadcastToRoomPeers pushes an event to every online participant of a room
// except the actor.
func (uc *ChatUseCase) broadcastToRoomPeers(ctx context.Context, roomID, exceptID string, event string, data interface{}) {
	room, err := uc.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		logger.Warn("chat: broadcast lookup for room %s failed: %v", roomID, err)
		return
	}

	for _, participant := range room.Users {
		if participant != exceptID {
			uc.wsManager.SendToUser(participant, event, data)
		}
	}
}

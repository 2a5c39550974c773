package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"joblink/internal/domain/entity"
	ws "joblink/internal/infrastructure/websocket"
	"joblink/internal/usecase"
	"joblink/pkg/config"
	"joblink/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		PresenceTimeout:   20 * time.Minute,
		AdminDutyWindow:   10 * time.Minute,
		TypingDebounce:    2 * time.Second,
		UploadIdleTimeout: 10 * time.Minute,
	}
}

func newTestUseCase(chatRepo *MockChatRepository, userRepo *MockUserRepository, push usecase.PushSender) (*usecase.ChatUseCase, *ws.Manager) {
	manager := ws.NewManager(testConfig(), userRepo, nil)
	uc := usecase.NewChatUseCase(chatRepo, userRepo, manager, push)
	manager.BindChat(uc)
	return uc, manager
}

func seeker(id string) *entity.User {
	return &entity.User{ID: id, DisplayName: "User " + id, Role: entity.RoleJobSeeker}
}

func pairRoom(a, b string) *entity.ChatRoom {
	now := time.Now()
	return &entity.ChatRoom{
		ID:        entity.PairRoomID(a, b),
		Users:     []string{a, b},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFindOrCreateRoomIsPairSymmetric(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	roomID := entity.PairRoomID("alice", "bob")
	chatRepo.On("GetRoomByID", ctx, roomID).Return(nil, errors.NotFound("Chat room", nil))
	chatRepo.On("CreateRoom", ctx, mock.AnythingOfType("*entity.ChatRoom")).Return(nil)

	// Order of the pair must not matter.
	room, created, err := uc.FindOrCreateRoom(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, roomID, room.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, room.Users)
}

func TestFindOrCreateRoomRejectsSelfChat(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)

	_, _, err := uc.FindOrCreateRoom(context.Background(), "alice", "alice")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestFindOrCreateRoomLosingRaceReReads(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	roomID := entity.PairRoomID("alice", "bob")
	existing := pairRoom("alice", "bob")

	chatRepo.On("GetRoomByID", ctx, roomID).Return(nil, errors.NotFound("Chat room", nil)).Once()
	chatRepo.On("CreateRoom", ctx, mock.AnythingOfType("*entity.ChatRoom")).Return(errors.Conflict("Chat room", nil)).Once()
	chatRepo.On("GetRoomByID", ctx, roomID).Return(existing, nil).Once()

	room, created, err := uc.FindOrCreateRoom(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing, room)
	chatRepo.AssertExpectations(t)
}

func TestSendSeenOnlyWhenBothFocused(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, manager := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	userRepo.On("GetByID", ctx, "bob").Return(seeker("bob"), nil)
	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)

	var stored *entity.Message
	chatRepo.On("CreateMessage", ctx, mock.AnythingOfType("*entity.Message")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*entity.Message) }).
		Return(nil)

	manager.Focus().Join("alice", "sess-a", room.ID)
	manager.Focus().Join("bob", "sess-b", room.ID)

	msg, err := uc.Send(ctx, ws.SendInput{SenderID: "alice", RecipientID: "bob", Text: "hi"})
	require.NoError(t, err)
	assert.True(t, msg.Seen)
	require.NotNil(t, stored)
	assert.True(t, stored.Seen)

	// Recipient looks away; the next message is born unseen.
	require.NoError(t, manager.Focus().Leave("bob", "sess-b", room.ID))

	msg, err = uc.Send(ctx, ws.SendInput{SenderID: "alice", RecipientID: "bob", Text: "still there?"})
	require.NoError(t, err)
	assert.False(t, msg.Seen)
}

func TestSendUnknownRecipient(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "ghost").Return(nil, errors.NotFound("User", nil))

	_, err := uc.Send(ctx, ws.SendInput{SenderID: "alice", RecipientID: "ghost", Text: "hello?"})
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestSendRequiresIdentity(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	_, err := uc.Send(ctx, ws.SendInput{RecipientID: "bob", Text: "hi"})
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))

	_, err = uc.Send(ctx, ws.SendInput{SenderID: "alice", Text: "hi"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendNotifiesUnfocusedRecipient(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	push := newRecordingPushSender()
	uc, _ := newTestUseCase(chatRepo, userRepo, push)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	recipient := seeker("bob")
	recipient.PushToken = "fcm-token-bob"

	userRepo.On("GetByID", ctx, "bob").Return(recipient, nil)
	userRepo.On("GetByID", mock.Anything, "alice").Return(seeker("alice"), nil)
	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)
	chatRepo.On("CreateMessage", ctx, mock.AnythingOfType("*entity.Message")).Return(nil)

	msg, err := uc.Send(ctx, ws.SendInput{SenderID: "alice", RecipientID: "bob", Text: "hi"})
	require.NoError(t, err)

	select {
	case got := <-push.sent:
		assert.Equal(t, "fcm-token-bob", got.token)
		assert.Equal(t, "User alice", got.title)
		assert.Equal(t, "hi", got.body)
		assert.Equal(t, room.ID, got.data["chatRoomId"])
		assert.Equal(t, msg.ID, got.data["messageId"])
	case <-time.After(time.Second):
		t.Fatal("push bridge was never invoked")
	}
}

func TestSendSkipsPushWithoutToken(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	push := newRecordingPushSender()
	uc, _ := newTestUseCase(chatRepo, userRepo, push)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	userRepo.On("GetByID", ctx, "bob").Return(seeker("bob"), nil)
	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)
	chatRepo.On("CreateMessage", ctx, mock.AnythingOfType("*entity.Message")).Return(nil)

	_, err := uc.Send(ctx, ws.SendInput{SenderID: "alice", RecipientID: "bob", Text: "hi"})
	require.NoError(t, err)

	select {
	case <-push.sent:
		t.Fatal("push sent despite missing token")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendAttachesReplySnapshotFromSameRoom(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	original := &entity.Message{
		ID:         "msg-1",
		ChatRoomID: room.ID,
		SenderID:   "bob",
		Text:       "original",
		Timestamp:  time.Now(),
	}

	userRepo.On("GetByID", ctx, "bob").Return(seeker("bob"), nil)
	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)
	chatRepo.On("GetMessageByID", ctx, "msg-1").Return(original, nil)
	chatRepo.On("CreateMessage", ctx, mock.AnythingOfType("*entity.Message")).Return(nil)

	msg, err := uc.Send(ctx, ws.SendInput{SenderID: "alice", RecipientID: "bob", Text: "re", ReplyToID: "msg-1"})
	require.NoError(t, err)
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, "msg-1", msg.ReplyTo.MessageID)
	assert.Equal(t, "original", msg.ReplyTo.Text)
}

func TestSendIgnoresDanglingReply(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	userRepo.On("GetByID", ctx, "bob").Return(seeker("bob"), nil)
	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)
	chatRepo.On("GetMessageByID", ctx, "gone").Return(nil, errors.NotFound("Message", nil))
	chatRepo.On("CreateMessage", ctx, mock.AnythingOfType("*entity.Message")).Return(nil)

	msg, err := uc.Send(ctx, ws.SendInput{SenderID: "alice", RecipientID: "bob", Text: "re", ReplyToID: "gone"})
	require.NoError(t, err)
	assert.Nil(t, msg.ReplyTo)
}

func TestEditMessageOnlyBySender(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	msg := &entity.Message{ID: "msg-1", SenderID: "bob", Text: "mine"}
	chatRepo.On("GetMessageByID", ctx, "msg-1").Return(msg, nil)

	_, _, err := uc.EditMessage(ctx, "alice", "msg-1", "hijacked")
	assert.True(t, errors.Is(err, "FORBIDDEN"))
	chatRepo.AssertNotCalled(t, "UpdateMessage", mock.Anything, mock.Anything)
}

func TestEditMessageSameTextIsNoop(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	msg := &entity.Message{ID: "msg-1", SenderID: "alice", Text: "same"}
	chatRepo.On("GetMessageByID", ctx, "msg-1").Return(msg, nil)

	updated, changed, err := uc.EditMessage(ctx, "alice", "msg-1", "same")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "same", updated.Text)
	chatRepo.AssertNotCalled(t, "UpdateMessage", mock.Anything, mock.Anything)
}

func TestDeleteMessageSoftDeletes(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	msg := &entity.Message{ID: "msg-1", ChatRoomID: "room-1", SenderID: "alice", Text: "oops"}
	chatRepo.On("GetMessageByID", ctx, "msg-1").Return(msg, nil)
	chatRepo.On("GetRoomByID", ctx, "room-1").Return(pairRoom("alice", "bob"), nil)

	var stored *entity.Message
	chatRepo.On("UpdateMessage", ctx, mock.AnythingOfType("*entity.Message")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*entity.Message) }).
		Return(nil)

	deleted, err := uc.DeleteMessage(ctx, "alice", "msg-1")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	require.NotNil(t, stored)
	assert.True(t, stored.Deleted)
}

func TestDeleteMessageOnlyBySender(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	msg := &entity.Message{ID: "msg-1", SenderID: "bob"}
	chatRepo.On("GetMessageByID", ctx, "msg-1").Return(msg, nil)

	_, err := uc.DeleteMessage(ctx, "alice", "msg-1")
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestDeleteRoomRequiresParticipant(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)
	userRepo.On("GetByID", ctx, "mallory").Return(seeker("mallory"), nil)

	err := uc.DeleteRoom(ctx, "mallory", room.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
	chatRepo.AssertNotCalled(t, "DeleteRoom", mock.Anything, mock.Anything)
}

func TestDeleteRoomSoftDeletesMessagesFirst(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)
	chatRepo.On("SoftDeleteRoomMessages", ctx, room.ID).Return(nil)
	chatRepo.On("DeleteRoom", ctx, room.ID).Return(nil)

	require.NoError(t, uc.DeleteRoom(ctx, "alice", room.ID))
	chatRepo.AssertExpectations(t)
}

func TestRoomSummariesKeepRoomsWithoutPreview(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	active := pairRoom("alice", "bob")
	empty := pairRoom("alice", "carol")
	last := &entity.Message{ID: "msg-9", ChatRoomID: active.ID, SenderID: "bob", Text: "latest"}

	chatRepo.On("ListRoomsByUser", ctx, "alice").Return([]*entity.ChatRoom{active, empty}, nil)
	userRepo.On("GetByID", ctx, "bob").Return(seeker("bob"), nil)
	userRepo.On("GetByID", ctx, "carol").Return(seeker("carol"), nil)
	chatRepo.On("LatestMessage", ctx, active.ID).Return(last, nil)
	chatRepo.On("LatestMessage", ctx, empty.ID).Return(nil, errors.NotFound("Message", nil))
	chatRepo.On("CountUnseen", ctx, active.ID, "alice").Return(int64(3), nil)
	chatRepo.On("CountUnseen", ctx, empty.ID, "alice").Return(int64(0), nil)

	summaries, err := uc.RoomSummaries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, last, summaries[0].LastMessage)
	assert.Equal(t, int64(3), summaries[0].UnreadCount)

	// A room whose history is empty or fully deleted stays listed, only its
	// preview is absent.
	assert.Nil(t, summaries[1].LastMessage)
	assert.Equal(t, "carol", summaries[1].OtherUser.ID)
}

func TestRoomHistoryMarksSeen(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	msgs := []*entity.Message{{ID: "msg-1", ChatRoomID: room.ID, SenderID: "bob", Text: "hi"}}

	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)
	chatRepo.On("MarkRoomSeen", ctx, room.ID, "alice").Return(1, nil)
	chatRepo.On("ListMessagesByRoom", ctx, room.ID, 0, 0).Return(msgs, int64(1), nil)
	userRepo.On("GetByID", ctx, "bob").Return(seeker("bob"), nil)

	history, err := uc.RoomHistory(ctx, "alice", room.ID)
	require.NoError(t, err)
	assert.Equal(t, room, history.Room)
	assert.Equal(t, "bob", history.OtherUser.ID)
	assert.Len(t, history.Messages, 1)
	chatRepo.AssertExpectations(t)
}

func TestVerifyParticipantHidesMembership(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	room := pairRoom("alice", "bob")
	chatRepo.On("GetRoomByID", ctx, room.ID).Return(room, nil)
	chatRepo.On("GetRoomByID", ctx, "missing").Return(nil, errors.NotFound("Chat room", nil))
	userRepo.On("GetByID", ctx, "mallory").Return(seeker("mallory"), nil)

	// An outsider and a nonexistent room look identical.
	errOutsider := uc.VerifyParticipant(ctx, "mallory", room.ID)
	errMissing := uc.VerifyParticipant(ctx, "alice", "missing")
	assert.True(t, errors.Is(errOutsider, "NOT_FOUND"))
	assert.True(t, errors.Is(errMissing, "NOT_FOUND"))

	assert.NoError(t, uc.VerifyParticipant(ctx, "alice", room.ID))
}

func TestAdminRoomsRequiresAdminRole(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "alice").Return(seeker("alice"), nil)

	_, err := uc.AdminRooms(ctx, "alice")
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestAdminRoomsListsSupportRooms(t *testing.T) {
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	uc, _ := newTestUseCase(chatRepo, userRepo, nil)
	ctx := context.Background()

	admin := &entity.User{ID: "root", DisplayName: "Root", Role: entity.RoleAdmin}
	support := &entity.ChatRoom{
		ID:         entity.AdminRoomID("alice"),
		Users:      []string{"alice"},
		IsForAdmin: true,
	}

	userRepo.On("GetByID", ctx, "root").Return(admin, nil)
	userRepo.On("GetByID", ctx, "alice").Return(seeker("alice"), nil)
	chatRepo.On("ListAdminRooms", ctx).Return([]*entity.ChatRoom{support}, nil)
	chatRepo.On("LatestMessage", ctx, support.ID).Return(nil, errors.NotFound("Message", nil))
	chatRepo.On("CountUnseen", ctx, support.ID, entity.AdminRecipient).Return(int64(2), nil)

	summaries, err := uc.AdminRooms(ctx, "root")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "alice", summaries[0].OtherUser.ID)
	assert.Equal(t, int64(2), summaries[0].UnreadCount)
}

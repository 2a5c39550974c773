package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"joblink/internal/domain/entity"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) CreateRoom(ctx context.Context, room *entity.ChatRoom) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockChatRepository) GetRoomByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	args := m.Called(ctx, id)
	if room := args.Get(0); room != nil {
		return room.(*entity.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) ListRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	args := m.Called(ctx, userID)
	if rooms := args.Get(0); rooms != nil {
		return rooms.([]*entity.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) ListAdminRooms(ctx context.Context) ([]*entity.ChatRoom, error) {
	args := m.Called(ctx)
	if rooms := args.Get(0); rooms != nil {
		return rooms.([]*entity.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) AddRoomUser(ctx context.Context, roomID, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *MockChatRepository) DeleteRoom(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockChatRepository) GetMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	args := m.Called(ctx, id)
	if msg := args.Get(0); msg != nil {
		return msg.(*entity.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) UpdateMessage(ctx context.Context, message *entity.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockChatRepository) ListMessagesByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error) {
	args := m.Called(ctx, roomID, limit, offset)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]*entity.Message), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *MockChatRepository) LatestMessage(ctx context.Context, roomID string) (*entity.Message, error) {
	args := m.Called(ctx, roomID)
	if msg := args.Get(0); msg != nil {
		return msg.(*entity.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) CountUnseen(ctx context.Context, roomID, recipientID string) (int64, error) {
	args := m.Called(ctx, roomID, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChatRepository) MarkRoomSeen(ctx context.Context, roomID, recipientID string) (int, error) {
	args := m.Called(ctx, roomID, recipientID)
	return args.Int(0), args.Error(1)
}

func (m *MockChatRepository) SoftDeleteRoomMessages(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*entity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingPushSender collects pushes on a channel so tests can wait for the
// background notify goroutine.
type recordingPushSender struct {
	sent chan pushRecord
}

type pushRecord struct {
	token string
	title string
	body  string
	data  map[string]string
}

func newRecordingPushSender() *recordingPushSender {
	return &recordingPushSender{sent: make(chan pushRecord, 4)}
}

func (p *recordingPushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	p.sent <- pushRecord{token: token, title: title, body: body, data: data}
	return nil
}

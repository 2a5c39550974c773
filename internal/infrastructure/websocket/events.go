package websocket

// Inbound event names. One handler per event; payload shapes below.
const (
	EventHeartbeat          = "heartbeat"
	EventJoinRoom           = "joinRoom"
	EventLeaveRoom          = "leaveRoom"
	EventRequestChatRooms   = "requestChatRooms"
	EventSingleChatRoom     = "singleChatRoom"
	EventSendMessage        = "sendMessage"
	EventDeleteMessage      = "deleteMessage"
	EventUpdateMessage      = "updateMessage"
	EventTyping             = "typing"
	EventDeleteChatRoom     = "deleteChatRoom"
	EventCreateChatRoom     = "createChatRoom"
	EventAdminChatRoom      = "adminChatRoom"
	EventMessageToAdmin     = "messageToAdmin"
	EventAdminMessageToUser = "adminMessageToUser"
	EventFileChunk          = "fileChunk"
)

// Outbound event names.
const (
	EventGetOnlineUsers      = "getOnlineUsers"
	EventJoinedRoom          = "joinedRoom"
	EventLeftRoom            = "leftRoom"
	EventChatRoomsResponse   = "chatRoomsResponse"
	EventChatRoomResponse    = "chatRoomResponse"
	EventGetMessage          = "getMessage"
	EventGetMessageOutside   = "getMessageOutSide"
	EventMessageSent         = "messageSentConfirmation"
	EventDeleteNotification  = "deleteMessageNotification"
	EventUpdateNotification  = "updateMessageNotification"
	EventTypingNotification  = "typingNotification"
	EventSeenUpdate          = "seenUpdate"
	EventChatRoomDeleted     = "chatRoomDeleted"
	EventChatRoomCreated     = "chatRoomCreated"
	EventFileUploadComplete  = "fileUploadComplete"
	EventAdminDutyExpired    = "adminDutyExpired"
	EventErrorNotification   = "errorNotification"
)

// WSMessage is the envelope every frame uses in both directions.
type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type HeartbeatPayload struct {
	UserID string `json:"userId"`
}

type JoinRoomPayload struct {
	UserID     string `json:"userId"`
	ChatRoomID string `json:"chatRoomId" validate:"required"`
}

type LeaveRoomPayload struct {
	UserID     string `json:"userId"`
	ChatRoomID string `json:"chatRoomId" validate:"required"`
}

type RequestChatRoomsPayload struct {
	UserID string `json:"userId"`
}

type SingleChatRoomPayload struct {
	UserID     string `json:"userId"`
	ChatRoomID string `json:"chatRoomId" validate:"required"`
}

type FilePayload struct {
	URL      string `json:"url" validate:"required,url"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

type SendMessagePayload struct {
	Text        string        `json:"text"`
	SenderID    string        `json:"senderId"`
	RecipientID string        `json:"recipientId" validate:"required"`
	ReplyTo     string        `json:"replyTo,omitempty"`
	Files       []FilePayload `json:"files,omitempty" validate:"dive"`
}

type DeleteMessagePayload struct {
	UserID    string `json:"userId"`
	MessageID string `json:"messageId" validate:"required"`
}

type UpdateMessagePayload struct {
	UserID    string `json:"userId"`
	MessageID string `json:"messageId" validate:"required"`
	NewText   string `json:"newText" validate:"required"`
}

type TypingPayload struct {
	ChatRoomID string `json:"chatRoomId" validate:"required"`
	UserID     string `json:"userId"`
	IsTyping   bool   `json:"isTyping"`
}

type DeleteChatRoomPayload struct {
	UserID     string `json:"userId"`
	ChatRoomID string `json:"chatRoomId" validate:"required"`
}

type CreateChatRoomPayload struct {
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId" validate:"required"`
}

type AdminChatRoomPayload struct {
	UserID string `json:"userId"`
}

type MessageToAdminPayload struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text" validate:"required"`
}

type AdminMessageToUserPayload struct {
	SenderID string `json:"senderId"`
	UserID   string `json:"userId" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

type FileChunkPayload struct {
	UploadID    string `json:"uploadId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	MimeType    string `json:"mimeType"`
	ChunkIndex  int    `json:"chunkIndex" validate:"gte=0"`
	TotalChunks int    `json:"totalChunks" validate:"gt=0,lte=1024"`
	Payload     string `json:"payload" validate:"required"`
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
}

// Outbound payload shapes that are not plain entities.

type TypingNotification struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
	IsTyping   bool   `json:"isTyping"`
}

type SeenUpdate struct {
	ChatRoomID string `json:"chatRoomId"`
	SeenByID   string `json:"seenById"`
	Count      int    `json:"count"`
}

type RoomPresenceNotice struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
}

type ErrorNotification struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type StatusResponse struct {
	Status int         `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Count  int         `json:"count,omitempty"`
}

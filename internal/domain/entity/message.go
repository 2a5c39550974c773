package entity

import "time"

// FileDescriptor points at an uploaded attachment.
type FileDescriptor struct {
	URL      string `json:"url" firestore:"url"`
	Name     string `json:"name" firestore:"name"`
	MimeType string `json:"mime_type" firestore:"mimeType"`
}

// ReplySnapshot is a copy of the replied-to message taken at send time. It is
// deliberately not a reference: later edits or deletes of the original do not
// propagate into replies.
type ReplySnapshot struct {
	MessageID string           `json:"message_id" firestore:"messageId"`
	Text      string           `json:"text" firestore:"text"`
	SenderID  string           `json:"sender_id" firestore:"senderId"`
	FileURLs  []FileDescriptor `json:"file_urls,omitempty" firestore:"fileUrls,omitempty"`
	Timestamp time.Time        `json:"timestamp" firestore:"timestamp"`
}

type Message struct {
	ID          string           `json:"id" firestore:"id"`
	ChatRoomID  string           `json:"chat_room_id" firestore:"chatRoomId"`
	SenderID    string           `json:"sender_id" firestore:"senderId"`
	RecipientID string           `json:"recipient_id" firestore:"recipientId"`
	Text        string           `json:"text" firestore:"text"`
	FileURLs    []FileDescriptor `json:"file_urls,omitempty" firestore:"fileUrls,omitempty"`
	ReplyTo     *ReplySnapshot   `json:"reply_to,omitempty" firestore:"replyTo,omitempty"`
	Seen        bool             `json:"seen" firestore:"seen"`
	Deleted     bool             `json:"deleted" firestore:"deleted"`
	Timestamp   time.Time        `json:"timestamp" firestore:"timestamp"`
}

// Snapshot captures the message's current state for embedding in a reply.
func (m *Message) Snapshot() *ReplySnapshot {
	return &ReplySnapshot{
		MessageID: m.ID,
		Text:      m.Text,
		SenderID:  m.SenderID,
		FileURLs:  m.FileURLs,
		Timestamp: m.Timestamp,
	}
}

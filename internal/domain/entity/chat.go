package entity

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// AdminRecipient is the sentinel recipient id for messages addressed to the
// admin pool of a support room rather than to a concrete user.
const AdminRecipient = "admin"

type ChatRoom struct {
	ID         string    `json:"id" firestore:"id"`
	Users      []string  `json:"users" firestore:"users"`
	IsForAdmin bool      `json:"is_for_admin" firestore:"isForAdmin"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time `json:"updated_at" firestore:"updatedAt"`
}

// PairRoomID derives the document id for a peer-to-peer room from the
// unordered participant pair, so concurrent first contact between the same
// two users resolves to the same document and the storage layer enforces
// uniqueness. The ids are hashed with a length prefix so that pairs sharing
// a concatenation, such as ("a", "b-c") and ("a-b", "c"), cannot collide.
func PairRoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s:%s", len(a), a, b)))
	return fmt.Sprintf("pair-%x", sum[:16])
}

// AdminRoomID derives the document id for a user's support room. At most one
// support room exists per user.
func AdminRoomID(userID string) string {
	return "admin-" + userID
}

func (r *ChatRoom) HasParticipant(userID string) bool {
	for _, id := range r.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the peer of userID in a two-party room, or the
// empty string when the room is a support room with no admin attached yet.
func (r *ChatRoom) OtherParticipant(userID string) string {
	for _, id := range r.Users {
		if id != userID {
			return id
		}
	}
	return ""
}

// RoomSummary is the read model behind the room list: the peer's public
// profile, the latest non-deleted message and the caller's unread count.
type RoomSummary struct {
	Room        *ChatRoom `json:"room"`
	OtherUser   *Profile  `json:"other_user"`
	LastMessage *Message  `json:"last_message,omitempty"`
	UnreadCount int64     `json:"unread_count"`
}

// RoomHistory is the read model behind a single-room fetch.
type RoomHistory struct {
	Room      *ChatRoom  `json:"room"`
	OtherUser *Profile   `json:"other_user,omitempty"`
	Messages  []*Message `json:"messages"`
}

package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"joblink/pkg/errors"
)

func TestJoinOverridesPreviousFocus(t *testing.T) {
	f := NewFocusMap()

	f.Join("alice", "sess-a", "room-1")
	f.Join("alice", "sess-a", "room-2")

	roomID, ok := f.FocusedRoom("alice")
	assert.True(t, ok)
	assert.Equal(t, "room-2", roomID)
}

func TestStaleLeaveIsRejected(t *testing.T) {
	f := NewFocusMap()

	f.Join("alice", "sess-a", "room-1")
	f.Join("alice", "sess-a", "room-2")

	// A leave for the room she already left must not clear the new focus.
	err := f.Leave("alice", "sess-a", "room-1")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	roomID, ok := f.FocusedRoom("alice")
	assert.True(t, ok)
	assert.Equal(t, "room-2", roomID)

	assert.NoError(t, f.Leave("alice", "sess-a", "room-2"))
	_, ok = f.FocusedRoom("alice")
	assert.False(t, ok)
}

func TestUsersInRoomExcludesCaller(t *testing.T) {
	f := NewFocusMap()

	f.Join("alice", "sess-a", "room-1")
	f.Join("bob", "sess-b", "room-1")
	f.Join("carol", "sess-c", "room-2")

	assert.ElementsMatch(t, []string{"bob"}, f.UsersInRoom("room-1", "alice"))
	assert.Empty(t, f.UsersInRoom("room-2", "carol"))
}

func TestOnDisconnectClearsFocus(t *testing.T) {
	f := NewFocusMap()

	f.Join("alice", "sess-a", "room-1")

	userID, roomID, ok := f.OnDisconnect("sess-a")
	assert.True(t, ok)
	assert.Equal(t, "alice", userID)
	assert.Equal(t, "room-1", roomID)

	_, _, ok = f.OnDisconnect("sess-a")
	assert.False(t, ok)

	_, focused := f.FocusedRoom("alice")
	assert.False(t, focused)
}

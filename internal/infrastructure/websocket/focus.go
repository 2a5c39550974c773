package websocket

import (
	"sync"

	"joblink/pkg/errors"
)

// FocusMap records which room each connected user is actively viewing. The
// user index answers "where is this user looking", the session index lets a
// disconnect find whose focus to clear. Both are maintained in lockstep.
type FocusMap struct {
	mu        sync.RWMutex
	byUser    map[string]string // user id -> room id
	bySession map[string]string // session id -> user id
}

func NewFocusMap() *FocusMap {
	return &FocusMap{
		byUser:    make(map[string]string),
		bySession: make(map[string]string),
	}
}

// Join records that userID is now viewing roomID. A join overrides any
// previous focus; clients hold one room open at a time.
func (f *FocusMap) Join(userID, sessionID, roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byUser[userID] = roomID
	f.bySession[sessionID] = userID
}

// Leave clears the focus only when the recorded room matches, guarding
// against stale leave calls arriving after the user already joined another
// room.
func (f *FocusMap) Leave(userID, sessionID, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.byUser[userID]
	if !ok || current != roomID {
		return errors.BadRequest("not in that room", nil)
	}

	delete(f.byUser, userID)
	delete(f.bySession, sessionID)
	return nil
}

func (f *FocusMap) FocusedRoom(userID string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	roomID, ok := f.byUser[userID]
	return roomID, ok
}

// UsersInRoom returns everyone currently focused on roomID, except the given
// user.
func (f *FocusMap) UsersInRoom(roomID, except string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var users []string
	for userID, focused := range f.byUser {
		if focused == roomID && userID != except {
			users = append(users, userID)
		}
	}
	return users
}

// OnDisconnect clears any focus held through sessionID and reports which
// user and room were vacated so the caller can notify the room.
func (f *FocusMap) OnDisconnect(sessionID string) (userID, roomID string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	userID, ok = f.bySession[sessionID]
	if !ok {
		return "", "", false
	}

	roomID = f.byUser[userID]
	delete(f.byUser, userID)
	delete(f.bySession, sessionID)
	return userID, roomID, roomID != ""
}

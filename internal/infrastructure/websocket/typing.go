package websocket

import (
	"strings"
	"sync"
	"time"
)

// TypingTracker debounces typing signals. Every Touch restarts the trailing
// timer for that (room, user) pair; onStop fires once after the debounce
// window passes without another touch.
type TypingTracker struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	debounce time.Duration
	onStop   func(roomID, userID string)
}

func NewTypingTracker(debounce time.Duration, onStop func(roomID, userID string)) *TypingTracker {
	return &TypingTracker{
		timers:   make(map[string]*time.Timer),
		debounce: debounce,
		onStop:   onStop,
	}
}

func typingKey(roomID, userID string) string {
	return roomID + "|" + userID
}

// Touch (re)arms the trailing stop timer for the pair.
func (t *TypingTracker) Touch(roomID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey(roomID, userID)
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
	}
	t.timers[key] = time.AfterFunc(t.debounce, func() {
		t.expire(roomID, userID)
	})
}

func (t *TypingTracker) expire(roomID, userID string) {
	t.mu.Lock()
	delete(t.timers, typingKey(roomID, userID))
	fn := t.onStop
	t.mu.Unlock()

	if fn != nil {
		fn(roomID, userID)
	}
}

// CancelUser drops all pending timers for a user without firing them. Used
// on disconnect.
func (t *TypingTracker) CancelUser(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	suffix := "|" + userID
	for key, timer := range t.timers {
		if strings.HasSuffix(key, suffix) {
			timer.Stop()
			delete(t.timers, key)
		}
	}
}

package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypingDebounceFiresOnceAfterLastTouch(t *testing.T) {
	stops := make(chan string, 4)
	tracker := NewTypingTracker(50*time.Millisecond, func(roomID, userID string) {
		stops <- roomID + "|" + userID
	})

	// Three rapid touches must collapse into a single stop notice.
	tracker.Touch("room-1", "alice")
	time.Sleep(15 * time.Millisecond)
	tracker.Touch("room-1", "alice")
	time.Sleep(15 * time.Millisecond)
	tracker.Touch("room-1", "alice")

	select {
	case got := <-stops:
		assert.Equal(t, "room-1|alice", got)
	case <-time.After(time.Second):
		t.Fatal("stop notice never fired")
	}

	select {
	case <-stops:
		t.Fatal("debounce fired more than once")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTypingTracksPairsIndependently(t *testing.T) {
	stops := make(chan string, 4)
	tracker := NewTypingTracker(20*time.Millisecond, func(roomID, userID string) {
		stops <- roomID + "|" + userID
	})

	tracker.Touch("room-1", "alice")
	tracker.Touch("room-1", "bob")

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case s := <-stops:
			got = append(got, s)
		case <-time.After(time.Second):
			t.Fatal("expected two stop notices")
		}
	}
	assert.ElementsMatch(t, []string{"room-1|alice", "room-1|bob"}, got)
}

func TestCancelUserSuppressesStop(t *testing.T) {
	stops := make(chan string, 4)
	tracker := NewTypingTracker(30*time.Millisecond, func(roomID, userID string) {
		stops <- roomID + "|" + userID
	})

	tracker.Touch("room-1", "alice")
	tracker.Touch("room-2", "alice")
	tracker.Touch("room-1", "bob")
	tracker.CancelUser("alice")

	select {
	case got := <-stops:
		assert.Equal(t, "room-1|bob", got)
	case <-time.After(time.Second):
		t.Fatal("bob's stop notice never fired")
	}

	select {
	case got := <-stops:
		t.Fatalf("cancelled timer fired: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

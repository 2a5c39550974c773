package websocket

import (
	"sync"
	"time"

	"joblink/pkg/logger"
)

// PresenceEntry tracks one connected user. Entries live in process memory
// only; presence is rebuilt from heartbeats after a restart.
type PresenceEntry struct {
	UserID      string    `json:"userId"`
	SessionID   string    `json:"-"`
	LastActive  time.Time `json:"lastActive"`
	IsAdmin     bool      `json:"isAdmin"`
	IsAvailable bool      `json:"isAvailable"`
}

// PresenceStore is the injected registry of who is online. All access goes
// through the mutex; handlers on different sessions hit it concurrently.
type PresenceStore struct {
	mu          sync.Mutex
	entries     map[string]*PresenceEntry // keyed by user id
	timeout     time.Duration
	dutyWindow  time.Duration
	adminTimers map[string]*time.Timer

	onAdminExpired func(userID, sessionID string)
	now            func() time.Time
}

func NewPresenceStore(timeout, dutyWindow time.Duration) *PresenceStore {
	return &PresenceStore{
		entries:     make(map[string]*PresenceEntry),
		timeout:     timeout,
		dutyWindow:  dutyWindow,
		adminTimers: make(map[string]*time.Timer),
		now:         time.Now,
	}
}

// SetAdminExpiredFunc installs the callback fired when an admin's on-duty
// window runs out. Must be set before the first LoginAsAdmin.
func (s *PresenceStore) SetAdminExpiredFunc(fn func(userID, sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAdminExpired = fn
}

// Heartbeat upserts the caller's entry, prunes everyone whose last activity
// is older than the timeout window and returns the resulting online user list.
// Safe to call repeatedly from the same user.
func (s *PresenceStore) Heartbeat(userID, sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.entries[userID]; ok {
		entry.SessionID = sessionID
		entry.LastActive = now
	} else {
		s.entries[userID] = &PresenceEntry{
			UserID:     userID,
			SessionID:  sessionID,
			LastActive: now,
		}
	}

	s.pruneLocked(now)
	return s.onlineLocked()
}

func (s *PresenceStore) pruneLocked(now time.Time) {
	for userID, entry := range s.entries {
		if now.Sub(entry.LastActive) > s.timeout {
			logger.Debug("presence: pruning stale entry for %s", userID)
			s.dropLocked(userID)
		}
	}
}

// LoginAsAdmin registers an admin as on duty and arms the one-shot duty
// timer. When the window expires the entry is evicted and the session is
// notified through the callback.
func (s *PresenceStore) LoginAsAdmin(userID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[userID] = &PresenceEntry{
		UserID:      userID,
		SessionID:   sessionID,
		LastActive:  s.now(),
		IsAdmin:     true,
		IsAvailable: true,
	}

	if timer, ok := s.adminTimers[userID]; ok {
		timer.Stop()
	}
	s.adminTimers[userID] = time.AfterFunc(s.dutyWindow, func() {
		s.expireAdmin(userID)
	})
}

func (s *PresenceStore) expireAdmin(userID string) {
	s.mu.Lock()
	entry, ok := s.entries[userID]
	var sessionID string
	if ok {
		entry.IsAvailable = false
		sessionID = entry.SessionID
		s.dropLocked(userID)
	}
	fn := s.onAdminExpired
	s.mu.Unlock()

	if ok && fn != nil {
		fn(userID, sessionID)
	}
}

func (s *PresenceStore) FindSession(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		return "", false
	}
	return entry.SessionID, true
}

// FindAdminSession returns the session of any on-duty admin.
func (s *PresenceStore) FindAdminSession() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.IsAdmin && entry.IsAvailable {
			return entry.SessionID, true
		}
	}
	return "", false
}

// Evict removes the entry bound to sessionID. Used on disconnect.
func (s *PresenceStore) Evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, entry := range s.entries {
		if entry.SessionID == sessionID {
			s.dropLocked(userID)
			return
		}
	}
}

func (s *PresenceStore) dropLocked(userID string) {
	delete(s.entries, userID)
	if timer, ok := s.adminTimers[userID]; ok {
		timer.Stop()
		delete(s.adminTimers, userID)
	}
}

func (s *PresenceStore) OnlineUserIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onlineLocked()
}

func (s *PresenceStore) onlineLocked() []string {
	online := make([]string, 0, len(s.entries))
	for userID := range s.entries {
		online = append(online, userID)
	}
	return online
}

package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"joblink/internal/domain/repository"
	"joblink/pkg/config"
	"joblink/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // chunked uploads ride the same frames
)

// Client is one WebSocket connection. SessionID is the transport handle the
// registries key on; a user reconnecting gets a fresh session id.
type Client struct {
	SessionID string
	UserID    string
	Conn      *websocket.Conn
	Send      chan []byte

	sendMu sync.Mutex
	closed bool
}

// queue enqueues a frame without blocking. It reports whether the frame was
// queued and whether the channel is still open; not-queued-but-open means the
// consumer has stopped draining its buffer.
func (c *Client) queue(raw []byte) (queued, open bool) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false, false
	}
	select {
	case c.Send <- raw:
		return true, true
	default:
		return false, true
	}
}

// closeSend closes the send channel at most once. Senders go through queue,
// which holds the same lock, so a send can never hit a closed channel.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager owns the connection table and the shared in-memory registries
// (presence, room focus, typing debounce, chunk reassembly). Handlers on all
// sessions share them, so every registry guards itself with a mutex.
type Manager struct {
	clients    map[string]*Client // keyed by session id
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	presence *PresenceStore
	focus    *FocusMap
	typing   *TypingTracker
	uploads  *UploadAssembler

	users    repository.UserRepository
	chat     ChatService
	validate *validator.Validate
}

func NewManager(cfg *config.Config, users repository.UserRepository, uploader Uploader) *Manager {
	m := &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		users:      users,
		validate:   validator.New(),
	}

	m.presence = NewPresenceStore(cfg.PresenceTimeout, cfg.AdminDutyWindow)
	m.presence.SetAdminExpiredFunc(m.adminDutyExpired)
	m.focus = NewFocusMap()
	m.typing = NewTypingTracker(cfg.TypingDebounce, m.typingStopped)
	m.uploads = NewUploadAssembler(uploader, cfg.UploadIdleTimeout)

	return m
}

// BindChat attaches the chat service after construction; the service itself
// needs the manager for its pushes, so wiring is two-phase.
func (m *Manager) BindChat(chat ChatService) {
	m.chat = chat
}

func (m *Manager) Presence() *PresenceStore  { return m.presence }
func (m *Manager) Focus() *FocusMap          { return m.focus }
func (m *Manager) Uploads() *UploadAssembler { return m.uploads }

// Start runs the registration loop until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.SessionID] = client
				m.mutex.Unlock()
				logger.Info("ws: session %s registered for user %s", client.SessionID, client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				delete(m.clients, client.SessionID)
				m.mutex.Unlock()
				client.closeSend()
				m.handleDisconnect(client)
				logger.Info("ws: session %s unregistered", client.SessionID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// handleDisconnect purges a vanished session from every registry. In-flight
// persistence calls for that session are allowed to complete; only further
// event delivery stops.
func (m *Manager) handleDisconnect(client *Client) {
	if userID, roomID, ok := m.focus.OnDisconnect(client.SessionID); ok {
		m.notifyRoomLeft(roomID, userID)
	}
	m.typing.CancelUser(client.UserID)
	m.presence.Evict(client.SessionID)
}

func (m *Manager) SendToSession(sessionID, event string, data interface{}) bool {
	m.mutex.RLock()
	client, ok := m.clients[sessionID]
	m.mutex.RUnlock()
	if !ok {
		return false
	}

	m.deliver(client, event, data)
	return true
}

// SendToUser resolves the user's session through presence and delivers there.
func (m *Manager) SendToUser(userID, event string, data interface{}) bool {
	sessionID, ok := m.presence.FindSession(userID)
	if !ok {
		return false
	}
	return m.SendToSession(sessionID, event, data)
}

// Broadcast delivers to every connected session.
func (m *Manager) Broadcast(event string, data interface{}) {
	m.mutex.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mutex.RUnlock()

	for _, client := range clients {
		m.deliver(client, event, data)
	}
}

func (m *Manager) deliver(client *Client, event string, data interface{}) {
	raw, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		logger.Error("ws: marshal %s for session %s: %v", event, client.SessionID, err)
		return
	}

	queued, open := client.queue(raw)
	if queued || !open {
		return
	}

	// Slow consumer; drop the connection rather than block the caller.
	logger.Warn("ws: session %s send buffer full, closing", client.SessionID)
	m.mutex.Lock()
	delete(m.clients, client.SessionID)
	m.mutex.Unlock()
	client.closeSend()
	m.handleDisconnect(client)
}

// ReadPump reads frames off the connection and dispatches them until the
// connection dies.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: session %s read error: %v", c.SessionID, err)
			}
			break
		}

		m.HandleClientMessage(c, raw)
	}
}

// WritePump flushes the send channel to the connection and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				logger.Warn("ws: session %s write error: %v", c.SessionID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

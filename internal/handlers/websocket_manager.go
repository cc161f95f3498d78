package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
)

const writeWait = 10 * time.Second

// Event types pushed to UI subscribers.
const (
	EventAlert    = "alert"
	EventReload   = "reload"
	EventNavigate = "navigate"
)

type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

var (
	_ ports.Notifier  = (*Manager)(nil)
	_ ports.Reloader  = (*Manager)(nil)
	_ ports.Navigator = (*Manager)(nil)
)

// Manager keeps the connected UI sockets and fans facade notices out to them.
type Manager struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*websocket.Conn]bool
}

func NewWebSocketManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS layer
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subscribers: make(map[*websocket.Conn]bool),
	}
}

func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return m.upgrader.Upgrade(w, r, nil)
}

func (m *Manager) AddSubscriber(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[conn] = true
}

func (m *Manager) RemoveSubscriber(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribers[conn] {
		delete(m.subscribers, conn)
		conn.Close()
	}
}

func (m *Manager) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Broadcast writes event to every subscriber and drops the ones that fail.
func (m *Manager) Broadcast(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		m.logger.ErrorContext(ctx, "Error encoding event", "error", err, "type", event.Type)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.subscribers {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err = conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			m.logger.WarnContext(ctx, "Dropping websocket subscriber", "error", err, "remote", conn.RemoteAddr().String())
			delete(m.subscribers, conn)
			conn.Close()
		}
	}

	m.logger.DebugContext(ctx, "Event broadcast", "type", event.Type, "subscribers", len(m.subscribers))
}

func (m *Manager) Alert(ctx context.Context, message string) {
	m.Broadcast(ctx, Event{Type: EventAlert, Message: message})
}

func (m *Manager) Reload(ctx context.Context) {
	m.Broadcast(ctx, Event{Type: EventReload})
}

func (m *Manager) Push(ctx context.Context, path string) {
	m.Broadcast(ctx, Event{Type: EventNavigate, Path: path})
}

package notifications

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// Hub tracks connected users (userId -> *websocket.Conn) and pushes case
// and hearing events to the parties they affect
type Hub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewHub creates an empty notification hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
	}
}

// HandleWebSocket upgrades the connection and registers the user
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("WebSocket upgrade error", "error", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		conn.Close()
		return
	}

	h.mutex.Lock()
	h.clients[userID] = conn
	h.mutex.Unlock()
	zap.S().Debugf("User %s connected to /ws/notifications", userID)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		zap.S().Debugf("User %s disconnected from /ws/notifications", userID)
		return nil
	})

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// SendToUser pushes one event to a single connected user; a send failure
// drops the connection
func (h *Hub) SendToUser(userID, event string, data map[string]interface{}) {
	h.mutex.Lock()
	conn, exists := h.clients[userID]
	h.mutex.Unlock()

	if !exists {
		return
	}
	err := conn.WriteJSON(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		zap.S().Warnw("error sending notification", "userId", userID, "error", err)
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		conn.Close()
	}
}

// SendToUsers pushes one event to each listed user, skipping blanks
func (h *Hub) SendToUsers(userIDs []string, event string, data map[string]interface{}) {
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		h.SendToUser(id, event, data)
	}
}

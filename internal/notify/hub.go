package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers send no Authorization header here; the token comes from ?token=.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub pushes events to the websocket connections of each professional.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint][]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint][]*websocket.Conn)}
}

func (h *Hub) Name() string { return "websocket" }

// Serve upgrades the request and keeps the connection registered until the
// client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, professionalID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	h.register(professionalID, conn)
	defer h.unregister(professionalID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *Hub) register(professionalID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[professionalID] = append(h.subscribers[professionalID], conn)
}

func (h *Hub) unregister(professionalID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[professionalID]
	kept := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(h.subscribers, professionalID)
	} else {
		h.subscribers[professionalID] = kept
	}
	_ = conn.Close()
}

func (h *Hub) Connections(professionalID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[professionalID])
}

// Send broadcasts ev to the professional's sockets. Having no listener is
// not a failure; failing every open socket is.
func (h *Hub) Send(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[ev.ProfessionalID]
	if len(conns) == 0 {
		return nil
	}

	kept := conns[:0]
	var lastErr error
	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			lastErr = err
			_ = conn.Close()
			continue
		}
		kept = append(kept, conn)
	}
	h.subscribers[ev.ProfessionalID] = kept

	if len(kept) == 0 {
		return fmt.Errorf("websocket: all %d connections failed: %w", len(conns), lastErr)
	}
	return nil
}

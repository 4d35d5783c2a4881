package v1

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/screenpilot/screenpilot/domain"
	"github.com/screenpilot/screenpilot/internal/hub"
	"github.com/screenpilot/screenpilot/store"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The viewer binds to localhost; cross-origin pages are fine.
		return true
	},
}

// HandleLive upgrades the connection and streams newly appended cycles.
// GET /v1/live
func (h *Handler) HandleLive(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WARN: failed to upgrade websocket: %v", err)
		return err
	}

	conn := h.hub.NewConnection(ws)
	h.hub.Register(conn)

	go h.writePump(conn)
	go h.readPump(conn)

	return nil
}

// readPump drains the connection. The live feed is one-way; client
// messages are ignored but reads drive the pong handler and detect
// closes.
func (h *Handler) readPump(conn *hub.Connection) {
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARN: websocket error: %v", err)
			}
			return
		}
	}
}

// writePump pushes broadcasts and keepalive pings to the connection.
func (h *Handler) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// liveEvent is the message pushed to live viewers for each new cycle.
type liveEvent struct {
	Type  string        `json:"type"`
	Cycle *domain.Cycle `json:"cycle"`
}

// Poller watches the store for cycles appended by the agent process and
// broadcasts them to live viewers.
type Poller struct {
	store    store.Store
	hub      *hub.Hub
	interval time.Duration
	seen     map[string]bool
}

func NewPoller(st store.Store, h *hub.Hub, interval time.Duration) *Poller {
	return &Poller{
		store:    st,
		hub:      h,
		interval: interval,
		seen:     make(map[string]bool),
	}
}

// Run blocks until the context is cancelled. Each interval it reloads
// the store and broadcasts cycles it has not seen before, oldest first.
func (p *Poller) Run(ctx context.Context) {
	// Cycles already on disk at startup are history, not live events.
	if cycles, err := p.store.List(ctx, domain.CycleFilter{}); err == nil {
		for _, c := range cycles {
			p.seen[c.CycleID] = true
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := p.store.Reload(ctx); err != nil {
			log.Printf("WARN: store reload failed: %v", err)
			continue
		}
		cycles, err := p.store.List(ctx, domain.CycleFilter{})
		if err != nil {
			log.Printf("WARN: failed to list cycles: %v", err)
			continue
		}

		for i := range cycles {
			c := &cycles[i]
			if p.seen[c.CycleID] {
				continue
			}
			p.seen[c.CycleID] = true
			if err := p.hub.BroadcastJSON(liveEvent{Type: "cycle", Cycle: c}); err != nil {
				log.Printf("WARN: failed to broadcast cycle %s: %v", c.CycleID, err)
			}
		}
	}
}

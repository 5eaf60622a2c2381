package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// clientBuffer is the number of envelopes queued for a subscriber.
	// A subscriber that falls this far behind is disconnected.
	clientBuffer = 64
)

// Hub is a Sink that streams envelopes to websocket subscribers.
//
// Subscribers connect with an optional "name" query parameter holding a
// comma separated list of event names they want to receive.
type Hub struct {
	upgrader websocket.Upgrader
	logger   log.Logger

	mu      sync.Mutex
	clients map[*subscriber]struct{}
}

var (
	_ Sink         = (*Hub)(nil)
	_ http.Handler = (*Hub)(nil)
)

type subscriber struct {
	conn   *websocket.Conn
	filter Filter
	send   chan Envelope
}

// NewHub returns a hub without subscribers.
func NewHub(logger log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger.With("module", "hub"),
		clients: make(map[*subscriber]struct{}),
	}
}

// Publish queues the envelope for every matching subscriber. It never
// blocks.
func (h *Hub) Publish(e Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.clients {
		if !s.filter.Match(e) {
			continue
		}
		select {
		case s.send <- e:
		default:
			h.logger.Info("dropping slow subscriber", "remote", s.conn.RemoteAddr().String())
			h.remove(s)
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		h.remove(s)
	}
}

// remove must be called with the lock held.
func (h *Hub) remove(s *subscriber) {
	if _, ok := h.clients[s]; !ok {
		return
	}
	delete(h.clients, s)
	close(s.send)
}

// ServeHTTP upgrades the connection and streams envelopes until the
// subscriber goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade", "err", err)
		return
	}
	s := &subscriber{
		conn:   conn,
		filter: Filter(r.URL.Query().Get("name")),
		send:   make(chan Envelope, clientBuffer),
	}

	h.mu.Lock()
	h.clients[s] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(s)
	h.readLoop(s)
}

// readLoop consumes control frames until the connection fails.
func (h *Hub) readLoop(s *subscriber) {
	defer func() {
		h.mu.Lock()
		h.remove(s)
		h.mu.Unlock()
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case e, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(e); err != nil {
				h.logger.Debug("write", "err", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

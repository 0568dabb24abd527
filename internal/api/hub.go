package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cs2-telemetry/internal/observability"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Ping period, shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Subscribers never send payloads, only control frames.
	maxMessageSize = 512

	// DefaultBroadcastBuffer bounds the broadcast queue.
	DefaultBroadcastBuffer = 256

	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// subscriber is one websocket connection receiving broadcasts.
type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans push messages out to every connected subscriber. Broadcast never
// blocks: when the queue is full the message is dropped.
type Hub struct {
	subscribers map[*subscriber]struct{}
	mu          sync.RWMutex

	broadcast  chan []byte
	register   chan *subscriber
	unregister chan *subscriber

	logger *log.Logger
}

// NewHub creates a hub with a broadcast queue of the given size.
func NewHub(buffer int, logger *log.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBroadcastBuffer
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		broadcast:   make(chan []byte, buffer),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		logger:      logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case s := <-h.register:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			n := len(h.subscribers)
			h.mu.Unlock()
			observability.UpdatePushClients(n)
			h.logger.Printf("subscriber %s connected (total: %d)", s.id, n)
		case s := <-h.unregister:
			h.remove(s)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Broadcast queues msg for every subscriber. It reports false when the
// queue is full and the message was dropped.
func (h *Hub) Broadcast(msg []byte) bool {
	select {
	case h.broadcast <- msg:
		observability.RecordPushMessage("queued")
		return true
	default:
		observability.RecordPushMessage("dropped")
		h.logger.Printf("broadcast queue full, dropping message")
		return false
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeWS upgrades the request and registers the connection. The
// subscriber lives until the peer disconnects or ctx is done.
func (h *Hub) ServeWS(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Printf("websocket upgrade: %v", err)
			return
		}

		s := &subscriber{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan []byte, sendBufferSize),
		}

		select {
		case h.register <- s:
		case <-ctx.Done():
			conn.Close()
			return
		}

		go h.writePump(ctx, s)
		go h.readPump(ctx, s)
	}
}

func (h *Hub) fanOut(msg []byte) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.send <- msg:
			observability.RecordPushMessage("sent")
		default:
			// Slow subscriber.
			h.logger.Printf("subscriber %s buffer full, disconnecting", s.id)
			h.remove(s)
		}
	}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[s]
	if ok {
		delete(h.subscribers, s)
		close(s.send)
	}
	n := len(h.subscribers)
	h.mu.Unlock()

	if ok {
		observability.UpdatePushClients(n)
		h.logger.Printf("subscriber %s disconnected (total: %d)", s.id, n)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subscribers {
		close(s.send)
		delete(h.subscribers, s)
	}
	observability.UpdatePushClients(0)
}

func (h *Hub) readPump(ctx context.Context, s *subscriber) {
	defer func() {
		select {
		case h.unregister <- s:
		case <-ctx.Done():
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Printf("subscriber %s unexpected close: %v", s.id, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Printf("subscriber %s write: %v", s.id, err)
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

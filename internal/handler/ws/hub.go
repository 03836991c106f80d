package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type subscriber struct {
	conn *websocket.Conn
	send chan models.Event
}

// Hub fans lifecycle events out to connected WebSocket subscribers.
// Delivery is at-most-once per subscriber: a subscriber whose send
// buffer is full is dropped rather than allowed to stall the others.
type Hub struct {
	log *logger.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub creates a Hub instance.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[*subscriber]struct{}),
	}
}

var _ drepo.Notifier = (*Hub)(nil)

// Broadcast queues the event for every connected subscriber.
func (h *Hub) Broadcast(event models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		select {
		case s.send <- event:
		default:
			// Slow consumer: disconnect instead of blocking the fanout.
			delete(h.subs, s)
			close(s.send)
			h.log.Warn("dropping slow websocket subscriber")
		}
	}
}

// Handle upgrades the request and serves the subscription until the
// peer disconnects.
func (h *Hub) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan models.Event, sendBufferSize),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()
	h.log.Info("websocket subscriber connected", logger.Int("subscribers", count))

	go h.writeLoop(sub)
	h.readLoop(sub)
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		delete(h.subs, s)
		close(s.send)
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
	h.mu.Unlock()
}

// writeLoop pushes queued events and keepalive pings until the send
// channel closes.
func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.send:
			if !ok {
				_ = sub.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteJSON(event); err != nil {
				h.remove(sub)
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}

// readLoop drains (and discards) inbound frames so close and pong
// control messages are processed.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)
	sub.conn.SetReadLimit(512)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Package notify pushes per-user notifications over WebSockets. Messages are
// fanned out through a redis channel so every API instance can deliver to the
// connections it holds. Delivery is at-most-once.
package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	TypePaymentRecorded = "payment.recorded"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type Notification struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type wireMessage struct {
	UserID       string              `json:"userId"`
	Notification jsoniter.RawMessage `json:"notification"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	rdb      *redis.Client
	channel  string
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]map[*client]struct{}
}

func NewHub(rdb *redis.Client, channel, allowedOrigin string, log *zap.Logger) *Hub {
	h := &Hub{
		rdb:     rdb,
		channel: channel,
		log:     log,
		conns:   make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}
	return h
}

// Notify publishes n for userID on the shared channel.
func (h *Hub) Notify(ctx context.Context, userID string, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(wireMessage{UserID: userID, Notification: body})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, h.channel, msg).Err()
}

// Run relays channel messages to local connections until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	sub := h.rdb.Subscribe(ctx, h.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var wm wireMessage
			if err := json.Unmarshal([]byte(m.Payload), &wm); err != nil {
				h.log.Warn("dropping malformed notification", zap.Error(err))
				continue
			}
			h.deliver(wm.UserID, wm.Notification)
		}
	}
}

// deliver hands payload to every local connection of userID; slow clients lose it.
func (h *Hub) deliver(userID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for cl := range h.conns[userID] {
		select {
		case cl.send <- payload:
			n++
		default:
			h.log.Warn("notification dropped, client too slow", zap.String("user_id", userID))
		}
	}
	return n
}

// Connections reports how many sockets userID has on this instance.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

func (h *Hub) add(userID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.conns[userID] = set
	}
	set[cl] = struct{}{}
}

func (h *Hub) remove(userID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[userID]
	if _, ok := set[cl]; !ok {
		return
	}
	delete(set, cl)
	close(cl.send)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}

// Serve upgrades the request and holds the socket until the client leaves.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(userID, cl)
	go h.writePump(cl)
	h.readPump(userID, cl)
}

// readPump only drains control frames; clients do not send application data.
func (h *Hub) readPump(userID string, cl *client) {
	defer func() {
		h.remove(userID, cl)
		_ = cl.conn.Close()
	}()
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed", zap.String("user_id", userID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					h.log.Debug("websocket ping failed", zap.Error(err))
				}
				return
			}
		}
	}
}

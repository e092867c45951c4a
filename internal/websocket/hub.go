package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"spandi-backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenVerifier resolves a session token to its session id.
type TokenVerifier interface {
	ParseToken(token string) (string, error)
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans conversation events out to every socket open for a session.
// With a Redis client events travel over pub/sub so any replica can
// publish; without one they are delivered in-process.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string]map[*client]struct{}
	redisClient *redis.Client
	verifier    TokenVerifier
	logger      *zap.Logger
	subs        map[string]*subscription
}

// subscription is registered before the Redis subscribe is confirmed so a
// disconnect in between still cancels it.
type subscription struct {
	cancel context.CancelFunc
}

func NewHub(redisClient *redis.Client, verifier TokenVerifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]map[*client]struct{}),
		redisClient: redisClient,
		verifier:    verifier,
		logger:      logger,
		subs:        make(map[string]*subscription),
	}
}

func channelName(sessionID string) string {
	return "session_updates:" + sessionID
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID, err := h.verifier.ParseToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(sessionID, c)
	if h.redisClient != nil {
		h.subscribe(sessionID)
	}

	go h.writePump(c)
	go h.readPump(sessionID, c)
}

func (h *Hub) register(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*client]struct{})
	}
	h.clients[sessionID][c] = struct{}{}
	total := len(h.clients[sessionID])

	h.logger.Debug("websocket connected", zap.String("session_id", sessionID), zap.Int("total", total))
}

func (h *Hub) unregister(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[sessionID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)

	// If no more connections, cancel pub/sub
	if len(conns) == 0 {
		delete(h.clients, sessionID)
		if sub, ok := h.subs[sessionID]; ok {
			sub.cancel()
			delete(h.subs, sessionID)
		}
	}

	h.logger.Debug("websocket disconnected", zap.String("session_id", sessionID))
}

// subscribe makes sure a session with open sockets has one live Redis
// subscription. It waits for the subscription to be confirmed so events
// published right after the handshake are not lost. A failed subscribe
// leaves no entry, so the next socket for the session retries.
func (h *Hub) subscribe(sessionID string) {
	h.mu.Lock()
	if _, ok := h.subs[sessionID]; ok || len(h.clients[sessionID]) == 0 {
		h.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel}
	h.subs[sessionID] = sub
	h.mu.Unlock()

	pubsub := h.redisClient.Subscribe(ctx, channelName(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		cancel()
		h.mu.Lock()
		if h.subs[sessionID] == sub {
			delete(h.subs, sessionID)
		}
		h.mu.Unlock()
		if ctx.Err() == nil {
			h.logger.Error("redis subscribe failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.broadcast(sessionID, []byte(msg.Payload))
			}
		}
	}()
}

func (h *Hub) subscribed(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.subs[sessionID]
	return ok
}

func (h *Hub) readPump(sessionID string, c *client) {
	defer h.unregister(sessionID, c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[sessionID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("websocket send buffer full, dropping event", zap.String("session_id", sessionID))
		}
	}
}

// Publish delivers event to every socket of the session.
func (h *Hub) Publish(ctx context.Context, sessionID string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if h.redisClient != nil {
		return h.redisClient.Publish(ctx, channelName(sessionID), data).Err()
	}
	h.broadcast(sessionID, data)
	return nil
}

func (h *Hub) connectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Close drops every subscription and socket.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		sub.cancel()
		delete(h.subs, id)
	}
	for id, conns := range h.clients {
		for c := range conns {
			close(c.send)
		}
		delete(h.clients, id)
	}
}

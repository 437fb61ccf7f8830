package live

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var ErrNotConnected = errors.New("receiver not connected")

// Client is one socket of a user. A user may hold several.
type Client struct {
	UserID uuid.UUID
	conn   *websocket.Conn
	mu     sync.Mutex
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteJSON(v)
}

func (c *Client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub tracks live notification sockets per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		logger:  logger.With().Str("component", "live_hub").Logger(),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}

	set[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}

	delete(set, c)

	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Connected returns the number of open sockets for userID.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID])
}

// Publish writes payload to every socket of receiverID.
func (h *Hub) Publish(receiverID uuid.UUID, payload any) error {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[receiverID]))
	for c := range h.clients[receiverID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return ErrNotConnected
	}

	var errs []error

	for _, c := range targets {
		if err := c.writeJSON(payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Attach serves conn for userID until the peer goes away. It blocks.
func (h *Hub) Attach(userID uuid.UUID, conn *websocket.Conn) {
	c := &Client{UserID: userID, conn: conn}
	h.register(c)

	h.logger.Debug().Str("user_id", userID.String()).Msg("socket attached")

	done := make(chan struct{})

	defer func() {
		close(done)
		h.unregister(c)
		conn.Close()
		h.logger.Debug().Str("user_id", userID.String()).Msg("socket detached")
	}()

	go h.keepAlive(c, done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Inbound frames carry nothing; reading only detects closure.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) keepAlive(c *Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

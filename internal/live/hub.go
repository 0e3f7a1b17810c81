package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message types pushed to live clients.
const (
	MsgTypeInit        = "init"
	MsgTypeQuickSearch = "quick_search"
	MsgTypeLotAlert    = "lot_alert"
)

const writeWait = 10 * time.Second

// Message is the envelope for every live update.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type envelope struct {
	session string
	data    []byte
}

// Client is one connected websocket.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session string
	send    chan []byte
}

// Hub fans messages out to connected clients. A message addressed to a
// session only reaches clients that joined with that session.
type Hub struct {
	log        zerolog.Logger
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	getInitData func() any
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetInitDataProvider sets the snapshot sent to every new client.
func (h *Hub) SetInitDataProvider(provider func() any) {
	h.getInitData = provider
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Int("total_clients", total).Msg("live client connected")
			h.sendInitData(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Int("total_clients", total).Msg("live client disconnected")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if msg.session != "" && client.session != msg.session {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) sendInitData(client *Client) {
	if h.getInitData == nil {
		return
	}
	data, err := json.Marshal(Message{Type: MsgTypeInit, Data: h.getInitData()})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal init data")
		return
	}
	select {
	case client.send <- data:
	default:
		h.log.Warn().Msg("failed to send init data, client buffer full")
	}
}

// Publish sends a message to every client.
func (h *Hub) Publish(msgType string, data any) {
	h.PublishTo("", msgType, data)
}

// PublishTo sends a message to the clients of one session. An empty session
// reaches everyone.
func (h *Hub) PublishTo(session, msgType string, data any) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("failed to marshal live message")
		return
	}
	select {
	case h.broadcast <- envelope{session: session, data: payload}:
	default:
		h.log.Warn().Str("type", msgType).Msg("live broadcast queue full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, session string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		session: session,
		send:    make(chan []byte, 256),
	}
}

// Register adds the client to the hub. It returns false once the hub has
// stopped.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

func (c *Client) Unregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// ReadPump drains incoming frames so close and ping control messages are
// handled. Clients never send data.
func (c *Client) ReadPump() {
	defer func() {
		c.Unregister()
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump forwards queued messages to the connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

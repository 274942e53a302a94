package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/editorbridge/bridge/dispatch"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Events buffered between the dispatcher and the hub loop.
	broadcastBuffer = 256
)

// AllTopics subscribes to every event.
const AllTopics = "*"

// EventDispatch is the event name of dispatcher notifications.
const EventDispatch = "dispatch"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The listener only binds loopback addresses.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is one frame sent to subscribers.
type Message struct {
	Topic string `json:"topic"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one websocket subscriber.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

// Hub fans dispatch events out to websocket subscribers. Subscribers pick a
// topic: a domain name, or AllTopics.
//
// The topic map is owned by the Run goroutine. Publishers never block: when
// the broadcast buffer is full the event is dropped and counted.
type Hub struct {
	topics map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger  *slog.Logger
	clients atomic.Int64
	dropped atomic.Uint64
}

// NewHub creates a hub. Call Run to start delivering.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket"),
	}
}

// Run is the hub's event loop. It returns when ctx is done, after closing
// every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			for _, clients := range h.topics {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to topic.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, topic string) {
	if topic == "" {
		topic = AllTopics
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 256),
		topic: topic,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Observe implements dispatch.Observer.
func (h *Hub) Observe(ev dispatch.Event) {
	topic := ev.Domain
	if topic == "" {
		topic = AllTopics
	}
	h.Publish(topic, EventDispatch, ev)
}

// Publish queues an event for subscribers of topic and of AllTopics.
func (h *Hub) Publish(topic, event string, data any) {
	select {
	case h.broadcast <- &Message{Topic: topic, Event: event, Data: data}:
	default:
		h.dropped.Add(1)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

// Dropped returns how many events were discarded because the hub was busy.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) registerClient(client *Client) {
	if h.topics[client.topic] == nil {
		h.topics[client.topic] = make(map[*Client]bool)
	}
	h.topics[client.topic][client] = true
	h.clients.Add(1)

	h.logger.Debug("client subscribed", "topic", client.topic, "topic_clients", len(h.topics[client.topic]))
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.topics[client.topic]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	h.clients.Add(-1)
	if len(clients) == 0 {
		delete(h.topics, client.topic)
	}

	h.logger.Debug("client unsubscribed", "topic", client.topic, "topic_clients", len(clients))
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("marshal websocket message", "error", err)
		return
	}

	h.deliver(message.Topic, data)
	if message.Topic != AllTopics {
		h.deliver(AllTopics, data)
	}
}

func (h *Hub) deliver(topic string, data []byte) {
	for client := range h.topics[topic] {
		select {
		case client.send <- data:
		default:
			// Slow subscriber.
			h.unregisterClient(client)
		}
	}
}

// readPump discards inbound frames and detects disconnects.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read", "error", err)
			}
			return
		}
	}
}

// writePump sends queued frames, one websocket message per event.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

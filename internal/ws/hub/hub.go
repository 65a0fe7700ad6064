package hub

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrStopped = errors.New("hub stopped")

type Connection struct {
	conn *websocket.Conn

	sendMu sync.RWMutex
	send   chan []byte
	closed bool

	// topics is owned by the hub goroutine.
	topics map[string]struct{}

	pendingMu sync.Mutex
	pending   map[string]struct{}
	changed   chan struct{}
}

type topicCmd struct {
	c     *Connection
	topic string
}

type Hub struct {
	register    chan *Connection
	unregister  chan *Connection
	subscribe   chan topicCmd
	unsubscribe chan topicCmd
	publish     chan string
	clients     map[*Connection]struct{}
	rooms       map[string]map[*Connection]struct{}
	done        chan struct{}
}

func NewConnection(conn *websocket.Conn) *Connection {
	return &Connection{
		conn:    conn,
		send:    make(chan []byte, 128),
		topics:  make(map[string]struct{}),
		pending: make(map[string]struct{}),
		changed: make(chan struct{}, 1),
	}
}

func NewHub() *Hub {
	return &Hub{
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		subscribe:   make(chan topicCmd),
		unsubscribe: make(chan topicCmd),
		publish:     make(chan string, 256),
		clients:     make(map[*Connection]struct{}),
		rooms:       make(map[string]map[*Connection]struct{}),
		done:        make(chan struct{}),
	}
}

// Run owns all room state until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.CloseSend()
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}

		case c := <-h.unregister:
			for topic := range c.topics {
				h.leave(c, topic)
			}
			delete(h.clients, c)
			c.CloseSend()

		case cmd := <-h.subscribe:
			room := h.rooms[cmd.topic]
			if room == nil {
				room = make(map[*Connection]struct{})
				h.rooms[cmd.topic] = room
			}
			room[cmd.c] = struct{}{}
			cmd.c.topics[cmd.topic] = struct{}{}

		case cmd := <-h.unsubscribe:
			h.leave(cmd.c, cmd.topic)

		case topic := <-h.publish:
			for c := range h.rooms[topic] {
				c.markChanged(topic)
			}
		}
	}
}

func (h *Hub) leave(c *Connection, topic string) {
	delete(c.topics, topic)

	room := h.rooms[topic]
	if room == nil {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, topic)
	}
}

func (h *Hub) Register(c *Connection) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrStopped
	}
}

func (h *Hub) Unregister(c *Connection) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.CloseSend()
	}
}

// Subscribe returns once the hub has recorded the subscription, so a later
// Publish from the same goroutine is always observed.
func (h *Hub) Subscribe(c *Connection, topic string) error {
	select {
	case h.subscribe <- topicCmd{c: c, topic: topic}:
		return nil
	case <-h.done:
		return ErrStopped
	}
}

func (h *Hub) Unsubscribe(c *Connection, topic string) {
	select {
	case h.unsubscribe <- topicCmd{c: c, topic: topic}:
	case <-h.done:
	}
}

func (h *Hub) Publish(ctx context.Context, topic string) error {
	select {
	case <-h.done:
		return ErrStopped
	default:
	}

	select {
	case h.publish <- topic:
		return nil
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Connection) markChanged(topic string) {
	c.pendingMu.Lock()
	c.pending[topic] = struct{}{}
	c.pendingMu.Unlock()

	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// Changed is signalled when at least one subscribed topic changed since the
// last TakeChanged.
func (c *Connection) Changed() <-chan struct{} {
	return c.changed
}

// TakeChanged returns and clears the changed topics in sorted order.
func (c *Connection) TakeChanged() []string {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	topics := make([]string, 0, len(c.pending))
	for t := range c.pending {
		topics = append(topics, t)
	}
	clear(c.pending)

	slices.Sort(topics)
	return topics
}

// Send drops b when the client is not keeping up or already gone.
func (c *Connection) Send(b []byte) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Connection) CloseSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

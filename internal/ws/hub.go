package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"go-pos-ws/internal/events"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one authenticated socket. Admins receive every tenant's events.
type Client struct {
	Conn   Conn
	UserID uuid.UUID
	Admin  bool

	send    chan []byte
	stopped chan struct{}
}

// Wait blocks until the client's writer has exited and closed the socket.
func (c *Client) Wait() { <-c.stopped }

// clientQueue bounds the messages buffered per socket; a client that falls
// further behind is disconnected.
const clientQueue = 64

type envelope struct {
	ownerID uuid.UUID
	message []byte
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
	done       chan struct{}
	mutex      sync.RWMutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan envelope, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Register adds the client and starts its writer. It reports false once the
// hub has stopped.
func (h *Hub) Register(client *Client) bool {
	client.send = make(chan []byte, clientQueue)
	client.stopped = make(chan struct{})
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes the client and closes its socket. Safe after Stop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			go h.writePump(client)
			h.log.Debug("ws client connected", "user_id", client.UserID)

		case client := <-h.unregister:
			h.drop(client)

		case env := <-h.outbound:
			// Run is the only goroutine that mutates clients
			var slow []*Client
			for client := range h.clients {
				if !client.Admin && client.UserID != env.ownerID {
					continue
				}
				select {
				case client.send <- env.message:
				default:
					slow = append(slow, client)
				}
			}
			for _, client := range slow {
				h.log.Warn("ws client too slow, disconnecting", "user_id", client.UserID)
				h.drop(client)
			}

		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// writePump is the only writer to a client's socket.
func (h *Hub) writePump(client *Client) {
	defer close(client.stopped)
	defer client.Conn.Close()
	for msg := range client.send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("ws write failed", "user_id", client.UserID, "error", err)
			h.Unregister(client)
			return
		}
	}
}

// Stop closes every socket and ends Run.
func (h *Hub) Stop() { close(h.done) }

// ClientCount returns the number of connected sockets.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Publish queues the event for the owner's sockets and all admin sockets.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case h.outbound <- envelope{ownerID: e.OwnerID, message: msg}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package ws streams tree-change events to renderer clients over WebSocket.
// Clients subscribe per session; a renderer that reconnects fetches a fresh
// snapshot over REST, so the hub keeps no event history.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/metrics"
)

// Hub channel buffer sizes.
const (
	broadcastBuffer = 256
	registerBuffer  = 64
)

// Connection caps.
const (
	maxClients           = 1000
	maxClientsPerSession = 10
)

// sessionBroadcast is sent through the broadcast channel to the Run goroutine.
type sessionBroadcast struct {
	sessionID string
	msg       []byte
}

// Hub manages active renderer clients and broadcasts session events.
// All client map mutations happen exclusively in the Run goroutine.
type Hub struct {
	clients      map[*Client]bool
	sessionCount map[string]int
	register     chan *Client
	unregister   chan *Client
	broadcast    chan sessionBroadcast
	shutdown     chan struct{}
	done         chan struct{}
	count        atomic.Int64
	log          *logrus.Logger
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:      make(map[*Client]bool),
		sessionCount: make(map[string]int),
		register:     make(chan *Client, registerBuffer),
		unregister:   make(chan *Client, registerBuffer),
		broadcast:    make(chan sessionBroadcast, broadcastBuffer),
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		log:          log,
	}
}

// Run starts the hub event loop. It should be run as a goroutine and exits
// when Shutdown is called or the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()

			return
		case <-h.shutdown:
			h.closeAll()

			return

		case client := <-h.register:
			if len(h.clients) >= maxClients {
				h.log.Warn("global connection limit reached, dropping client")
				client.closeSend()

				continue
			}

			if h.sessionCount[client.SessionID] >= maxClientsPerSession {
				h.log.WithField("session_id", client.SessionID).Warn("per-session connection limit reached, dropping client")
				client.closeSend()

				continue
			}

			h.clients[client] = true
			h.sessionCount[client.SessionID]++
			h.count.Store(int64(len(h.clients)))
			metrics.WSConnections.Set(float64(len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

			h.count.Store(int64(len(h.clients)))
			metrics.WSConnections.Set(float64(len(h.clients)))

		case b := <-h.broadcast:
			for client := range h.clients {
				if client.SessionID != b.sessionID {
					continue
				}
				select {
				case client.send <- b.msg:
				default:
					// Slow consumer; drop it rather than block the loop.
					h.drop(client)
				}
			}

			h.count.Store(int64(len(h.clients)))
		}
	}
}

// BroadcastEvent sends a typed event to all clients watching the session.
// The actual send happens in the Run goroutine via a channel.
func (h *Hub) BroadcastEvent(eventType, sessionID string, data json.RawMessage) {
	evt := Event{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Time:      time.Now(),
	}

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")

		return
	}

	select {
	case h.broadcast <- sessionBroadcast{sessionID: sessionID, msg: msg}:
	default:
		h.log.Warn("broadcast channel full, dropping event")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		// Run loop already exited; cleanup happened in closeAll.
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Shutdown stops the Run loop and closes all connections. It blocks until
// the loop has exited.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.closeSend()

	h.sessionCount[client.SessionID]--
	if h.sessionCount[client.SessionID] <= 0 {
		delete(h.sessionCount, client.SessionID)
	}
}

func (h *Hub) closeAll() {
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}

	h.sessionCount = make(map[string]int)
	h.count.Store(0)
	metrics.WSConnections.Set(0)
}

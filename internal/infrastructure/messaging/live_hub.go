// Package messaging pushes engagement events to readers of the same story over websockets.
package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
)

const (
	clientSendBuffer = 16
	broadcastBuffer  = 64
)

type roomMessage struct {
	storyID string
	payload []byte
}

// LiveHub manages story rooms. All room membership changes happen on the Run
// goroutine; readers of the room map take the read lock.
type LiveHub struct {
	rooms        map[string]map[*LiveClient]bool
	register     chan *LiveClient
	unregister   chan *LiveClient
	broadcast    chan roomMessage
	done         chan struct{}
	writeTimeout time.Duration
	pingInterval time.Duration
	metrics      *metrics.Metrics
	logger       *logging.ChanneledLogger
	mu           sync.RWMutex
}

// NewLiveHub creates a hub. Run must be started before clients connect.
func NewLiveHub(writeTimeout, pingInterval time.Duration, m *metrics.Metrics, logger *logging.ChanneledLogger) *LiveHub {
	return &LiveHub{
		rooms:        make(map[string]map[*LiveClient]bool),
		register:     make(chan *LiveClient),
		unregister:   make(chan *LiveClient),
		broadcast:    make(chan roomMessage, broadcastBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		metrics:      m,
		logger:       logger,
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, after closing
// every client's send channel.
func (h *LiveHub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Realtime().Info("Live hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.StoryID]; !ok {
				h.rooms[client.StoryID] = make(map[*LiveClient]bool)
			}
			h.rooms[client.StoryID][client] = true
			size := len(h.rooms[client.StoryID])
			h.mu.Unlock()
			h.metrics.LiveConnections.Inc()
			h.logger.Realtime().Debug("Live client joined", "storyId", client.StoryID, "session", logging.MaskSession(client.Session), "roomSize", size)

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
			h.logger.Realtime().Debug("Live client left", "storyId", client.StoryID, "session", logging.MaskSession(client.Session))

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Done is closed once Run has returned.
func (h *LiveHub) Done() <-chan struct{} {
	return h.done
}

// Register adds a client to its story room. It reports false when the hub has stopped.
func (h *LiveHub) Register(client *LiveClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from its room.
func (h *LiveHub) Unregister(client *LiveClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for every client in the event's story room. Events
// are dropped when the queue is full so engagement writes never block on readers.
func (h *LiveHub) Publish(event engagement.LiveEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Realtime().Error("Failed to marshal live event", "type", event.Type, "error", err.Error())
		return
	}

	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- roomMessage{storyID: event.StoryID, payload: payload}:
	default:
		h.logger.Realtime().Warn("Live event queue full, event dropped", "type", event.Type, "storyId", event.StoryID)
	}
}

// RoomSize returns the number of clients connected to a story.
func (h *LiveHub) RoomSize(storyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[storyID])
}

func (h *LiveHub) deliver(msg roomMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[msg.storyID] {
		select {
		case client.Send <- msg.payload:
		default:
			// A client that cannot keep up is disconnected.
			h.logger.Realtime().Warn("Live client send buffer full, disconnecting", "storyId", msg.storyID)
			h.removeLocked(client)
		}
	}
}

func (h *LiveHub) removeLocked(client *LiveClient) {
	clients, ok := h.rooms[client.StoryID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	h.metrics.LiveConnections.Dec()
	if len(clients) == 0 {
		delete(h.rooms, client.StoryID)
	}
}

func (h *LiveHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

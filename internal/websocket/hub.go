package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ppg-monitor-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel is the Redis channel instances share broadcasts on.
const ClusterChannel = "ppg_cluster_events"

type clusterMessage struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

type Hub struct {
	// Connected clients, keyed by connection id.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance communication, nil when disabled.
	rdb        *redis.Client
	instanceID string
	cluster    chan []byte

	// closed once Run returns
	done chan struct{}

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		cluster:    make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run serves registrations until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
		go h.publishToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Hub stopped", nil)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.ID, "clients": total})

		case client := <-h.unregister:
			if h.remove(client) {
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.ID})
			}
		}
	}
}

// ClientCount returns the number of local connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends data to every local client and, when Redis is configured,
// to the clients of every other instance.
func (h *Hub) Broadcast(data []byte) {
	h.broadcastLocal(data)

	if h.rdb != nil {
		select {
		case h.cluster <- data:
		default:
			h.logger.Warn("Hub", "Cluster queue full, message not shared", nil)
		}
	}
}

// Send delivers data to one local client. It reports whether the client
// was found and accepted the message.
func (h *Hub) Send(clientID uuid.UUID, data []byte) bool {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	if ok {
		ok = client.enqueue(data)
	}
	h.mu.RUnlock()

	if !ok && client != nil {
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"client_id": clientID})
		h.remove(client)
	}
	return ok
}

func (h *Hub) broadcastLocal(data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients {
		if !client.enqueue(data) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"client_id": client.ID})
		h.remove(client)
	}
}

// remove drops a client and closes its Send channel. Only the first call
// for a client has any effect.
func (h *Hub) remove(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.ID]; !ok || current != client {
		return false
	}
	delete(h.clients, client.ID)
	close(client.Send)
	return true
}

func (h *Hub) publishToRedis(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-h.cluster:
			payload, err := json.Marshal(clusterMessage{Origin: h.instanceID, Message: data})
			if err != nil {
				continue
			}
			if err := h.rdb.Publish(ctx, ClusterChannel, payload).Err(); err != nil {
				h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
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
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			// our own broadcasts were already delivered locally
			if payload.Origin == h.instanceID {
				continue
			}
			h.broadcastLocal(payload.Message)
		}
	}
}

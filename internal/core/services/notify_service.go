package services

import (
	"log"
	"sync"
)

// Event kinds published by the dispatch controller
const (
	EventQueueUpdated      = "queue:updated"
	EventTokenCalled       = "token:called"
	EventPatientRegistered = "patient:registered"
)

// GlobalChannel receives events from every department (live display boards)
const GlobalChannel = "*"

// SSEEvent represents a server-sent event
type SSEEvent struct {
	Event      string      `json:"event"`
	Department string      `json:"department"`
	Data       interface{} `json:"data"`
}

// SSEClient represents a connected SSE client. Department is the channel the
// client subscribed to; GlobalChannel subscribes to all departments.
type SSEClient struct {
	ID         string
	Department string
	Channel    chan SSEEvent
}

// SSEHub manages all SSE connections
type SSEHub struct {
	mu      sync.RWMutex
	clients map[string]*SSEClient
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]*SSEClient),
	}
}

// Register adds a new SSE client
func (h *SSEHub) Register(client *SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 SSE client registered: %s (dept=%s) | total=%d",
		client.ID, client.Department, len(h.clients))
}

// Unregister removes an SSE client
func (h *SSEHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 SSE client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// Publish delivers an event to every subscriber of the department plus the
// global channel. Delivery is best-effort: a full client channel is skipped,
// the client catches up on its next full-state poll.
func (h *SSEHub) Publish(department string, event SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Department = department
	sent := 0
	for _, client := range h.clients {
		if client.Department != department && client.Department != GlobalChannel {
			continue
		}
		select {
		case client.Channel <- event:
			sent++
		default:
			log.Printf("⚠️ SSE channel full for client %s, skipping", client.ID)
		}
	}
	if sent > 0 {
		log.Printf("📡 SSE broadcast [%s] dept=%s → %d clients", event.Event, department, sent)
	}
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ============================================================
// NotifyService — department-scoped fan-out over the SSE hub
// ============================================================

// NotifyService publishes queue state changes to subscribers. It is advisory:
// a failed or missed delivery never affects committed queue state.
type NotifyService struct {
	Hub *SSEHub
}

// NewNotifyService creates a new notification service
func NewNotifyService() *NotifyService {
	return &NotifyService{Hub: NewSSEHub()}
}

// NotifyQueueUpdated signals that a department's positions/estimates changed
func (n *NotifyService) NotifyQueueUpdated(department string) {
	n.Hub.Publish(department, SSEEvent{
		Event: EventQueueUpdated,
		Data:  map[string]interface{}{"department": department},
	})
}

// NotifyTokenCalled signals that a ticket was called to the counter
func (n *NotifyService) NotifyTokenCalled(department string, data map[string]interface{}) {
	n.Hub.Publish(department, SSEEvent{Event: EventTokenCalled, Data: data})
}

// NotifyPatientRegistered signals a new admission
func (n *NotifyService) NotifyPatientRegistered(department string, data map[string]interface{}) {
	n.Hub.Publish(department, SSEEvent{Event: EventPatientRegistered, Data: data})
}

// Package realtime fans chat messages out to websocket subscribers of a notification.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/metrics"
)

// Client is one websocket subscription to a notification's messages.
type Client struct {
	NotificationID string
	UserID         string
	Send           chan []byte

	hub    *Hub
	mu     sync.Mutex
	closed bool
}

// Close unregisters the client and closes Send. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.hub.unregister(c)
	close(c.Send)
}

// Hub tracks subscribers per notification id.
type Hub struct {
	mu     sync.RWMutex
	byNtf  map[string]map[*Client]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{byNtf: make(map[string]map[*Client]struct{}), buffer: 64}
}

// Subscribe registers a client for the messages of notificationID.
func (h *Hub) Subscribe(notificationID, userID string) *Client {
	c := &Client{
		NotificationID: notificationID,
		UserID:         userID,
		Send:           make(chan []byte, h.buffer),
		hub:            h,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byNtf[notificationID] == nil {
		h.byNtf[notificationID] = make(map[*Client]struct{})
	}
	h.byNtf[notificationID][c] = struct{}{}
	metrics.WSSubscribers.Inc()
	return c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.byNtf[c.NotificationID]
	if _, ok := m[c]; !ok {
		return
	}
	delete(m, c)
	if len(m) == 0 {
		delete(h.byNtf, c.NotificationID)
	}
	metrics.WSSubscribers.Dec()
}

// Dispatch sends ev to every subscriber of its notification. A subscriber
// whose buffer is full misses the message.
func (h *Hub) Dispatch(ev domain.MessageEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Warn().Err(err).Str("notification_id", ev.NotificationID).Msg("encode message event")
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.byNtf[ev.NotificationID]))
	for c := range h.byNtf[ev.NotificationID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		if !c.closed {
			select {
			case c.Send <- data:
			default:
				logging.Debug().Str("notification_id", ev.NotificationID).Str("user_id", c.UserID).Msg("subscriber buffer full, message skipped")
			}
		}
		c.mu.Unlock()
	}
}

// Count returns the number of subscribers of notificationID.
func (h *Hub) Count(notificationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byNtf[notificationID])
}

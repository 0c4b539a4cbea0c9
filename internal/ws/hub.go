// internal/ws/hub.go
package ws

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Subscriber is a single client's presence on a lobby's push channel.
type Subscriber struct {
	LobbyKey string
	Subject  string
	OutChan  chan interface{}
	Cancel   func()
}

// Write pushes a payload onto the subscriber's OutChan non-blockingly.
// A full or closed channel drops the payload; the next loop tick resends the
// current state anyway.
func (s *Subscriber) Write(payload interface{}) bool {
	select {
	case s.OutChan <- payload:
		return true
	default:
		return false
	}
}

// Hub is the in-process real-time transport: a subscriber registry keyed by
// lobby join key. The sync loop publishes snapshots into it; the websocket
// handler drains each subscriber's channel onto its connection.
type Hub struct {
	logger *logrus.Logger

	mu   sync.Mutex
	subs map[string]map[*Subscriber]struct{}
}

// NewHub returns an empty registry.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers sub under its lobby key.
func (h *Hub) Subscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sub.LobbyKey] == nil {
		h.subs[sub.LobbyKey] = make(map[*Subscriber]struct{})
	}
	h.subs[sub.LobbyKey][sub] = struct{}{}
}

// Unsubscribe removes sub and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.LobbyKey]; ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			close(sub.OutChan)
		}
		if len(set) == 0 {
			delete(h.subs, sub.LobbyKey)
		}
	}
}

// Publish sends payload to every subscriber of the lobby key. The sends stay
// under the mutex: they are non-blocking, and Unsubscribe closes OutChan under
// the same mutex, so a send can never race a close.
func (h *Hub) Publish(lobbyKey string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[lobbyKey] {
		if !sub.Write(payload) {
			h.logger.Warnf("ws: dropped snapshot for slow subscriber %s on lobby %s", sub.Subject, lobbyKey)
		}
	}
}

// SubscriberCount reports how many clients watch a lobby.
func (h *Hub) SubscriberCount(lobbyKey string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[lobbyKey])
}

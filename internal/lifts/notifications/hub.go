package notifications

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/prtracker/internal/telemetry/metrics"
)

const subscriberBuffer = 16

// Hub fans new notifications out to the live streams of their recipients.
// Delivery is best effort: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	closed      bool

	metricsManager *metrics.Manager
}

type subscriber struct {
	ch   chan *Notification
	once sync.Once
}

func NewHub(metricsManager *metrics.Manager) *Hub {
	return &Hub{
		subscribers:    make(map[string]map[*subscriber]struct{}),
		metricsManager: metricsManager,
	}
}

// Subscribe registers a stream for the user. The returned func unsubscribes and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan *Notification, func()) {
	sub := &subscriber{ch: make(chan *Notification, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[*subscriber]struct{})
	}
	h.subscribers[userID][sub] = struct{}{}
	if h.metricsManager != nil {
		h.metricsManager.GaugeStreamSubscribers.Inc()
	}

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.remove(userID, sub)
	}
}

// remove expects h.mu to be held.
func (h *Hub) remove(userID string, sub *subscriber) {
	sub.once.Do(func() {
		if subs, ok := h.subscribers[userID]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.subscribers, userID)
			}
		}
		close(sub.ch)
		if h.metricsManager != nil {
			h.metricsManager.GaugeStreamSubscribers.Dec()
		}
	})
}

func (h *Hub) Publish(notification *Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, recipient := range notification.Recipients {
		for sub := range h.subscribers[recipient] {
			select {
			case sub.ch <- notification:
			default:
				log.Warnf("notifications hub: stream of %s is full, dropping notification %d", recipient, notification.ID)
			}
		}
	}
}

// Subscribers returns the number of open streams of the user.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// Close ends all streams. Later subscriptions get an already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for userID, subs := range h.subscribers {
		for sub := range subs {
			h.remove(userID, sub)
		}
	}
}

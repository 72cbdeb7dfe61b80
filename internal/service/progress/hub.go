package progress

import (
	"sync"

	"SmartMoney/internal/domain/models"
)

const subscriberBuffer = 16

// Hub fans run progress out to any number of subscribers. Slow subscribers
// miss events rather than stall the run.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]chan models.ProgressEvent
	nextID  int
	last    models.ProgressEvent
	hasLast bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan models.ProgressEvent)}
}

// Report implements repository.ProgressReporter.
func (h *Hub) Report(ev models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = ev
	h.hasLast = true
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan models.ProgressEvent, func()) {
	ch := make(chan models.ProgressEvent, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Last returns the most recent event, if any run has reported yet.
func (h *Hub) Last() (models.ProgressEvent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.hasLast
}

// Subscribers reports how many listeners are attached.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

package store

import "sync"

// Hub fans document changes out to collection subscribers. The local
// backend uses it directly (a single host process is the only writer of the
// offline store, so in-process notification is complete); the realtime
// backend bridges redis pub/sub messages into one.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan Change
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Change)}
}

func (h *Hub) Subscribe(collection string) (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]chan Change)
	}
	key := h.next
	h.next++

	ch := make(chan Change, 16)
	h.subs[collection][key] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[collection][key]; ok {
			delete(h.subs[collection], key)
			close(sub)
		}
	}

	return ch, cancel
}

// Notify delivers without blocking; a full subscriber just misses this
// wake-up and catches up on the next one.
func (h *Hub) Notify(change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[change.Collection] {
		select {
		case ch <- change:
		default:
		}
	}
}

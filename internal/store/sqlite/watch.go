package sqlite

import (
	"sync"

	"aidat/internal/core"
	"aidat/internal/store"
)

// hub fans snapshots out to the repository's open subscriptions. Each
// subscriber channel holds at most one pending snapshot; a newer one
// replaces a stale undelivered one so slow readers always observe the
// latest state.
type hub struct {
	mu   sync.Mutex
	subs map[int]chan []core.Transaction
	next int
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan []core.Transaction)}
}

func (h *hub) subscribe(initial []core.Transaction) *store.Subscription {
	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan []core.Transaction, 1)
	h.subs[id] = ch
	ch <- initial
	h.mu.Unlock()

	errs := make(chan error)
	stop := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}
	return store.NewSubscription(ch, errs, stop)
}

func (h *hub) broadcast(snap []core.Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Package notify keeps the transient outcome notifications. Every CRUD
// operation produces exactly one of these; each auto-dismisses after a
// fixed duration and can be dismissed early by the user.
package notify

import (
	"sync"
	"time"
)

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// DefaultTTL matches the display duration the product always had.
const DefaultTTL = 4 * time.Second

type (
	Kind string

	Notification struct {
		ID        int64     `json:"id"`
		Message   string    `json:"message"`
		Kind      Kind      `json:"kind"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

// Center holds the currently visible notifications.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID int64
	items  []Notification
	timers map[int64]*time.Timer
}

func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:    ttl,
		timers: make(map[int64]*time.Timer),
	}
}

// Push adds a notification and schedules its auto-dismissal.
func (c *Center) Push(message string, kind Kind) Notification {
	c.mu.Lock()
	c.nextID++
	n := Notification{
		ID:        c.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	c.items = append(c.items, n)
	c.timers[n.ID] = time.AfterFunc(c.ttl, func() { c.Dismiss(n.ID) })
	c.mu.Unlock()
	return n
}

// Dismiss removes a notification before (or at) its deadline. Unknown ids
// are ignored: the timer and the user can race to dismiss.
func (c *Center) Dismiss(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Active returns the currently visible notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Close stops all pending dismissal timers.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.items = nil
}

// Package memory is an in-process Store used as the default backend and in
// tests. It mirrors the real collaborator's behavior: ids and timestamps are
// assigned on create, and every write pushes a fresh full snapshot, newest
// first, to all open subscriptions.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"aidat/internal/core"
	"aidat/internal/store"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction // append order; snapshots are served reversed
	subs  map[int]chan []core.Transaction
	next  int
	now   func() time.Time
}

func New() *Store {
	return &Store{
		subs: make(map[int]chan []core.Transaction),
		now:  time.Now,
	}
}

// NewAt uses a custom clock for the assigned timestamps.
func NewAt(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

// Seed loads transactions without notifying subscribers; call before
// Subscribe.
func (s *Store) Seed(ts ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ts...)
}

func (s *Store) Create(_ context.Context, rec core.Record, actor string) (string, error) {
	s.mu.Lock()
	now := s.now()
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Type:        rec.Type,
		Amount:      rec.Amount,
		Description: rec.Description,
		Date:        rec.Date,
		Month:       rec.Month,
		Year:        rec.Year,
		AddedBy:     actor,
		CreatedAt:   now,
	}
	s.items = append(s.items, tx)
	s.broadcastLocked()
	s.mu.Unlock()
	return tx.ID, nil
}

func (s *Store) Update(_ context.Context, id string, rec core.Record, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		t := &s.items[i]
		t.Type = rec.Type
		t.Amount = rec.Amount
		t.Description = rec.Description
		t.Date = rec.Date
		t.Month = rec.Month
		t.Year = rec.Year
		t.UpdatedBy = actor
		t.UpdatedAt = s.now()
		s.broadcastLocked()
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.broadcastLocked()
		return nil
	}
	return store.ErrNotFound
}

// Subscribe registers a snapshot channel and immediately delivers the
// current record set, the way the remote listener fires on attach.
func (s *Store) Subscribe(_ context.Context) (*store.Subscription, error) {
	s.mu.Lock()
	id := s.next
	s.next++
	ch := make(chan []core.Transaction, 1)
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	errs := make(chan error)
	stop := func() {
		s.mu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.mu.Unlock()
	}
	return store.NewSubscription(ch, errs, stop), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	return nil
}

// snapshotLocked returns a copy ordered by creation time descending.
func (s *Store) snapshotLocked() []core.Transaction {
	out := make([]core.Transaction, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		out = append(out, s.items[i])
	}
	return out
}

// broadcastLocked pushes the current snapshot to every subscriber. A slow
// subscriber only ever sees the latest snapshot: a pending stale one is
// replaced, never queued behind.
func (s *Store) broadcastLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
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

// Package store defines the outbound port to the document store the ledger
// delegates persistence and real-time sync to. Implementations live in the
// memory, sqlite and firestore subpackages.
package store

import (
	"context"
	"errors"
	"sync"

	"aidat/internal/core"
)

// ErrNotFound is returned by Update and Delete when no transaction has the
// given id.
var ErrNotFound = errors.New("transaction not found")

// Store is the collaborator contract. The store assigns ids and the
// created/updated timestamps; the caller supplies the actor that performed
// the write. Every remote change results in a full snapshot being delivered
// to all open subscriptions, ordered by creation time descending.
type Store interface {
	// Create persists a new transaction and returns its assigned id.
	Create(ctx context.Context, rec core.Record, actor string) (string, error)

	// Update overwrites the mutable fields of an existing transaction.
	Update(ctx context.Context, id string, rec core.Record, actor string) error

	// Delete removes a transaction by id.
	Delete(ctx context.Context, id string) error

	// Subscribe opens a snapshot subscription. The caller must close it
	// exactly once when it is torn down.
	Subscribe(ctx context.Context) (*Subscription, error)

	// Close releases the store's resources.
	Close() error
}

// Subscription delivers the full current record set on every remote change.
// Snapshots fully supersede one another; there are no deltas to reconcile.
// A value on Errs means the listen itself failed and no further snapshots
// will arrive.
type Subscription struct {
	Snapshots <-chan []core.Transaction
	Errs      <-chan error

	stop func()
	once sync.Once
}

// NewSubscription wraps the delivery channels with an unsubscribe function.
// Close is idempotent so the teardown path cannot double-unsubscribe.
func NewSubscription(snapshots <-chan []core.Transaction, errs <-chan error, stop func()) *Subscription {
	return &Subscription{Snapshots: snapshots, Errs: errs, stop: stop}
}

// Close cancels the subscription. Safe to call more than once; only the
// first call reaches the store.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

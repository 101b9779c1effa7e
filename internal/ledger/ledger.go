// Package ledger is the core of the application: it owns the current record
// snapshot, the active period filter, the overlay and pending-mutation
// state, and derives the visible transactions and totals the UI renders.
//
// All state transitions are triggered by discrete events (user actions,
// snapshot arrivals, operation completions) and serialized by a single
// mutex, so no two transitions interleave on the same mutation slot. Store
// round trips happen outside the lock: the corresponding pending flag stays
// set for the whole round trip and clears only on completion.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aidat/internal/core"
	"aidat/internal/notify"
	"aidat/internal/session"
	"aidat/internal/store"
)

// Overlay is the single active modal surface. Modeling it as one value
// makes illegal combinations, like the add and edit forms both open,
// unrepresentable.
type Overlay string

const (
	OverlayNone    Overlay = "none"
	OverlayLogin   Overlay = "login"
	OverlayAdd     Overlay = "add"
	OverlayEdit    Overlay = "edit"
	OverlayAccount Overlay = "account"
)

// Outcome is the single result every user-facing operation reports.
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// View is the derived read-model, recomputed from the current snapshot and
// filter on demand. It is a value: rendering it has no side effects.
type View struct {
	Loading      bool               `json:"loading"`
	Failed       string             `json:"failed,omitempty"`
	Period       core.Period        `json:"period"`
	Transactions []core.Transaction `json:"transactions"`
	Totals       core.Totals        `json:"totals"`
	Overlay      Overlay            `json:"overlay"`
	AddDraft     core.Draft         `json:"addDraft"`
	EditID       string             `json:"editId,omitempty"`
	EditDraft    core.Draft         `json:"editDraft"`
	Adding       bool               `json:"adding"`
	EditingID    string             `json:"editingId,omitempty"`
	DeletingIDs  []string           `json:"deletingIds,omitempty"`
	ConfirmIDs   []string           `json:"confirmIds,omitempty"`
}

type Ledger struct {
	mu       sync.Mutex
	store    store.Store
	sessions *session.Manager
	notes    *notify.Center
	now      func() time.Time

	// record snapshot, replaced wholesale on every delivery
	snapshot  []core.Transaction
	loaded    bool
	listenErr error
	revision  uint64

	filter core.Period

	// form state
	overlay   Overlay
	addDraft  core.Draft
	editID    string
	editDraft core.Draft

	// pending-operation flags, independent of the snapshot
	adding      bool
	editingID   string
	deleting    map[string]bool
	confirmable map[string]bool
}

func New(st store.Store, sessions *session.Manager, notes *notify.Center) *Ledger {
	l := &Ledger{
		store:       st,
		sessions:    sessions,
		notes:       notes,
		now:         time.Now,
		overlay:     OverlayNone,
		deleting:    make(map[string]bool),
		confirmable: make(map[string]bool),
	}
	l.filter = core.CurrentPeriod(l.now())
	l.addDraft = core.DefaultDraft(l.now())
	// Logout cancels any in-progress admin-only form state
	sessions.OnLogout(l.resetForms)
	return l
}

// Run subscribes to the store and consumes snapshots until the context
// ends. A listen failure is terminal: the ledger switches from "loading"
// to a persistent failed state and Run returns the error.
func (l *Ledger) Run(ctx context.Context) error {
	sub, err := l.store.Subscribe(ctx)
	if err != nil {
		l.failListen(err)
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Close()

	slog.InfoContext(ctx, "Ledger subscribed to store")

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.Snapshots:
			if !ok {
				return nil
			}
			l.ApplySnapshot(snap)
		case err := <-sub.Errs:
			l.failListen(err)
			return fmt.Errorf("snapshot listen: %w", err)
		}
	}
}

// ApplySnapshot replaces the in-memory record set wholesale. Pending
// operation flags are untouched: an in-flight mutation must never be
// clobbered by an incoming snapshot.
func (l *Ledger) ApplySnapshot(snap []core.Transaction) {
	l.mu.Lock()
	l.snapshot = snap
	l.loaded = true
	l.revision++
	rev := l.revision
	l.mu.Unlock()

	slog.Debug("Snapshot applied", "records", len(snap), "revision", rev)
}

func (l *Ledger) failListen(err error) {
	l.mu.Lock()
	l.listenErr = err
	l.mu.Unlock()
	slog.Error("Snapshot listen failed", "error", err)
	l.notes.Push("Live data connection lost!", notify.Error)
}

// SetFilter changes the visible period. Any viewer may call it.
func (l *Ledger) SetFilter(month, year int) Outcome {
	p := core.Period{Month: month, Year: year}
	if !p.Valid() {
		return Outcome{Message: "invalid period", Err: core.ErrInvalidDate}
	}
	l.mu.Lock()
	l.filter = p
	l.mu.Unlock()
	return Outcome{OK: true}
}

// Filter returns the active period.
func (l *Ledger) Filter() core.Period {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Snapshot returns the full unfiltered record set, newest first.
func (l *Ledger) Snapshot() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Transaction, len(l.snapshot))
	copy(out, l.snapshot)
	return out
}

// VisibleTransactions returns the snapshot filtered to the active period,
// preserving the store's creation-time-descending order.
func (l *Ledger) VisibleTransactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.FilterByPeriod(l.snapshot, l.filter)
}

// Totals aggregates the visible transactions.
func (l *Ledger) Totals() core.Totals {
	return core.Aggregate(l.VisibleTransactions())
}

// Revision increments with every applied snapshot. Derived data computed
// at a revision stays valid as long as the revision does.
func (l *Ledger) Revision() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.revision
}

// View assembles the full read-model in one consistent pass.
func (l *Ledger) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()

	visible := core.FilterByPeriod(l.snapshot, l.filter)
	v := View{
		Loading:      !l.loaded && l.listenErr == nil,
		Period:       l.filter,
		Transactions: visible,
		Totals:       core.Aggregate(visible),
		Overlay:      l.overlay,
		AddDraft:     l.addDraft,
		EditID:       l.editID,
		EditDraft:    l.editDraft,
		Adding:       l.adding,
		EditingID:    l.editingID,
	}
	if l.listenErr != nil {
		v.Failed = l.listenErr.Error()
	}
	for id := range l.deleting {
		v.DeletingIDs = append(v.DeletingIDs, id)
	}
	for id := range l.confirmable {
		v.ConfirmIDs = append(v.ConfirmIDs, id)
	}
	return v
}

// findLocked looks a transaction up in the current snapshot.
func (l *Ledger) findLocked(id string) (core.Transaction, bool) {
	for _, t := range l.snapshot {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// resetForms drops all caller-owned form state. Wired as the session
// logout hook; in-flight store requests are not cancelled, only the forms.
func (l *Ledger) resetForms() {
	l.mu.Lock()
	l.overlay = OverlayNone
	l.addDraft = core.DefaultDraft(l.now())
	l.editID = ""
	l.editDraft = core.Draft{}
	for id := range l.confirmable {
		delete(l.confirmable, id)
	}
	l.mu.Unlock()
}

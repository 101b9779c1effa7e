package memory

import (
	"context"
	"testing"
	"time"

	"aidat/internal/core"
	"aidat/internal/store"
)

func record(typ core.TransactionType, cents int64, desc string, month, year int) core.Record {
	return core.Record{
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Description: desc,
		Date:        core.NewDate(year, month, 1),
		Month:       month,
		Year:        year,
	}
}

func waitSnapshot(t *testing.T, sub *store.Subscription) []core.Transaction {
	t.Helper()
	select {
	case snap := <-sub.Snapshots:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	s := New()
	defer s.Close()

	sub, err := s.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	if snap := waitSnapshot(t, sub); len(snap) != 0 {
		t.Fatalf("initial snapshot len = %d, want 0", len(snap))
	}
}

func TestCreateOrdersNewestFirst(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	sub, err := s.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()
	waitSnapshot(t, sub) // initial

	first, err := s.Create(ctx, record(core.Income, 100000, "dues", 3, 2025), "mithatkara")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitSnapshot(t, sub)

	second, err := s.Create(ctx, record(core.Expense, 40000, "cleaning", 3, 2025), core.AnonymousActor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	snap := waitSnapshot(t, sub)
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}
	if snap[0].ID != second || snap[1].ID != first {
		t.Fatalf("snapshot order = [%s %s], want newest first", snap[0].ID, snap[1].ID)
	}
	if snap[1].AddedBy != "mithatkara" || snap[0].AddedBy != core.AnonymousActor {
		t.Fatalf("actors = %q/%q", snap[1].AddedBy, snap[0].AddedBy)
	}
	if snap[1].CreatedAt.IsZero() {
		t.Fatal("CreatedAt not assigned")
	}
}

func TestUpdateRewritesFieldsTogether(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, _ := s.Create(ctx, record(core.Expense, 40000, "cleaning", 3, 2025), "x")

	sub, _ := s.Subscribe(ctx)
	defer sub.Close()
	waitSnapshot(t, sub)

	upd := record(core.Expense, 50000, "deep cleaning", 4, 2025)
	if err := s.Update(ctx, id, upd, "mithatkara"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	snap := waitSnapshot(t, sub)
	got := snap[0]
	if got.Amount.Cents != 50000 || got.Description != "deep cleaning" || got.Month != 4 {
		t.Fatalf("updated record = %+v", got)
	}
	if got.UpdatedBy != "mithatkara" || got.UpdatedAt.IsZero() {
		t.Fatalf("update audit fields = %q/%v", got.UpdatedBy, got.UpdatedAt)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("CreatedAt must survive updates")
	}

	if err := s.Update(ctx, "missing", upd, "x"); err != store.ErrNotFound {
		t.Fatalf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesAndNotifies(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, _ := s.Create(ctx, record(core.Income, 1000, "a", 3, 2025), "x")
	keep, _ := s.Create(ctx, record(core.Income, 2000, "b", 3, 2025), "x")

	sub, _ := s.Subscribe(ctx)
	defer sub.Close()
	waitSnapshot(t, sub)

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snap := waitSnapshot(t, sub)
	if len(snap) != 1 || snap[0].ID != keep {
		t.Fatalf("snapshot after delete = %+v", snap)
	}

	if err := s.Delete(ctx, id); err != store.ErrNotFound {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestSlowSubscriberSeesLatestSnapshot(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	sub, _ := s.Subscribe(ctx)
	defer sub.Close()

	// Never drained between writes: the pending snapshot must be replaced,
	// not queued, so the next read observes the latest state.
	for i := 0; i < 5; i++ {
		if _, err := s.Create(ctx, record(core.Income, 100, "n", 3, 2025), "x"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	snap := waitSnapshot(t, sub)
	if len(snap) != 5 {
		t.Fatalf("latest snapshot len = %d, want 5", len(snap))
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	s := New()
	defer s.Close()

	sub, _ := s.Subscribe(context.Background())
	sub.Close()
	sub.Close() // must not panic or double-unsubscribe
}

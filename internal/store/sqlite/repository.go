// Package sqlite backs the store port with a local database. Every local
// write re-queries the full record set and pushes it to subscribers; when an
// AMQP client is attached, writes are also announced to other processes and
// their announcements are consumed back into fresh snapshots.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	changes "aidat/internal/amqp"
	"aidat/internal/core"
	"aidat/internal/store"
)

type Repository struct {
	db       *sql.DB
	notifier *changes.Client // nil when running without AMQP
	hub      *hub
}

// Open creates the database file if needed, runs migrations and returns a
// ready repository. notifier may be nil.
func Open(dbPath string, notifier *changes.Client) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:       db,
		notifier: notifier,
		hub:      newHub(),
	}, nil
}

func (r *Repository) Close() error {
	r.hub.closeAll()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, rec core.Record, actor string) (string, error) {
	id := uuid.NewString()
	now := time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, type, amount_cents, description, date, month, year, added_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(rec.Type), rec.Amount.Cents, rec.Description, rec.Date.String(),
		rec.Month, rec.Year, actor, now.UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", id,
		"type", rec.Type,
		"amount_cents", rec.Amount.Cents,
		"month", rec.Month,
		"year", rec.Year,
		"actor", actor)

	r.afterWrite(ctx, changes.ChangeCreated, id)
	return id, nil
}

func (r *Repository) Update(ctx context.Context, id string, rec core.Record, actor string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount_cents = ?, description = ?, date = ?, month = ?, year = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		string(rec.Type), rec.Amount.Cents, rec.Description, rec.Date.String(),
		rec.Month, rec.Year, actor, time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}

	r.afterWrite(ctx, changes.ChangeUpdated, id)
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}

	r.afterWrite(ctx, changes.ChangeDeleted, id)
	return nil
}

// Subscribe registers a snapshot channel and delivers the current record
// set immediately.
func (r *Repository) Subscribe(ctx context.Context) (*store.Subscription, error) {
	snap, err := r.queryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	return r.hub.subscribe(snap), nil
}

// StartChangeFeed consumes remote change notifications until the context
// ends. It is a no-op without an AMQP client. Re-querying on every message
// is idempotent, so our own announcements are not filtered out.
func (r *Repository) StartChangeFeed(ctx context.Context) error {
	if r.notifier == nil {
		return nil
	}
	return r.notifier.ConsumeChanges(ctx, func(msg *changes.ChangeMessage) error {
		snap, err := r.queryAll(ctx)
		if err != nil {
			return fmt.Errorf("requery after %s: %w", msg.Kind, err)
		}
		r.hub.broadcast(snap)
		return nil
	})
}

// afterWrite pushes a fresh snapshot locally and announces the change to
// other processes. A failed announcement never fails the write: the local
// state is already durable, remote instances just converge later.
func (r *Repository) afterWrite(ctx context.Context, kind, id string) {
	snap, err := r.queryAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to requery after write", "error", err, "kind", kind, "transaction_id", id)
	} else {
		r.hub.broadcast(snap)
	}

	if r.notifier == nil {
		return
	}
	if err := r.notifier.PublishChange(ctx, changes.NewChangeMessage(kind, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change notification",
			"error", err, "kind", kind, "transaction_id", id)
	}
}

func (r *Repository) queryAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, amount_cents, description, date, month, year,
		       added_by, COALESCE(updated_by, ''), created_at, COALESCE(updated_at, 0)
		FROM transactions
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t         core.Transaction
			typ, date string
			createdNs int64
			updatedNs int64
		)
		if err := rows.Scan(&t.ID, &typ, &t.Amount.Cents, &t.Description, &date,
			&t.Month, &t.Year, &t.AddedBy, &t.UpdatedBy, &createdNs, &updatedNs); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		parsed, err := core.ParseDate(date)
		if err != nil {
			// Rows with an unreadable date fall back to today, like the
			// original listener did
			parsed = core.DateOf(time.Now())
		}
		t.Date = parsed
		t.CreatedAt = time.Unix(0, createdNs)
		if updatedNs != 0 {
			t.UpdatedAt = time.Unix(0, updatedNs)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

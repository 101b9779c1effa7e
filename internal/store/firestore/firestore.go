// Package firestore backs the store port with a Cloud Firestore collection.
// The query snapshot listener is the real-time sync channel: Firestore
// pushes the full ordered record set on every remote change, which maps
// one-to-one onto the store port's subscription contract.
package firestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cloudfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"aidat/internal/core"
	"aidat/internal/store"
)

// Document field names, kept identical to the collection layout the web
// client writes so both can share one database.
const (
	fieldType        = "type"
	fieldAmount      = "amount"
	fieldDescription = "description"
	fieldDate        = "date"
	fieldMonth       = "month"
	fieldYear        = "year"
	fieldAddedBy     = "addedBy"
	fieldUpdatedBy   = "updatedBy"
	fieldCreatedAt   = "createdAt"
	fieldUpdatedAt   = "updatedAt"
)

type Config struct {
	ProjectID       string
	Collection      string
	CredentialsFile string // optional, falls back to ambient credentials
}

type Store struct {
	client     *cloudfs.Client
	collection string
}

// New connects a Firestore client for the configured project.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := cloudfs.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &Store{client: client, collection: cfg.Collection}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Create(ctx context.Context, rec core.Record, actor string) (string, error) {
	ref, _, err := s.client.Collection(s.collection).Add(ctx, map[string]interface{}{
		fieldType:        string(rec.Type),
		fieldAmount:      centsToUnits(rec.Amount.Cents),
		fieldDescription: rec.Description,
		fieldDate:        rec.Date.String(),
		fieldMonth:       rec.Month,
		fieldYear:        rec.Year,
		fieldAddedBy:     actor,
		fieldCreatedAt:   cloudfs.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", ref.ID,
		"type", rec.Type,
		"amount_cents", rec.Amount.Cents,
		"actor", actor)

	return ref.ID, nil
}

func (s *Store) Update(ctx context.Context, id string, rec core.Record, actor string) error {
	_, err := s.client.Collection(s.collection).Doc(id).Update(ctx, []cloudfs.Update{
		{Path: fieldType, Value: string(rec.Type)},
		{Path: fieldAmount, Value: centsToUnits(rec.Amount.Cents)},
		{Path: fieldDescription, Value: rec.Description},
		{Path: fieldDate, Value: rec.Date.String()},
		{Path: fieldMonth, Value: rec.Month},
		{Path: fieldYear, Value: rec.Year},
		{Path: fieldUpdatedBy, Value: actor},
		{Path: fieldUpdatedAt, Value: cloudfs.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.client.Collection(s.collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Subscribe attaches a snapshot listener on the collection ordered by
// creation time descending. The listener goroutine runs until the
// subscription is closed or the listen fails.
func (s *Store) Subscribe(ctx context.Context) (*store.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	snapshots := make(chan []core.Transaction, 1)
	errs := make(chan error, 1)

	it := s.client.Collection(s.collection).
		OrderBy(fieldCreatedAt, cloudfs.Desc).
		Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			qsnap, err := it.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				errs <- fmt.Errorf("listen: %w", err)
				return
			}

			snap, err := decodeAll(qsnap)
			if err != nil {
				errs <- err
				return
			}

			// Replace an undelivered stale snapshot instead of queueing
			select {
			case snapshots <- snap:
			default:
				select {
				case <-snapshots:
				default:
				}
				snapshots <- snap
			}
		}
	}()

	return store.NewSubscription(snapshots, errs, cancel), nil
}

func decodeAll(qsnap *cloudfs.QuerySnapshot) ([]core.Transaction, error) {
	var out []core.Transaction
	for {
		doc, err := qsnap.Documents.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate snapshot: %w", err)
		}
		out = append(out, decode(doc))
	}
	return out, nil
}

func decode(doc *cloudfs.DocumentSnapshot) core.Transaction {
	data := doc.Data()

	t := core.Transaction{
		ID:          doc.Ref.ID,
		Type:        core.TransactionType(stringField(data, fieldType)),
		Description: stringField(data, fieldDescription),
		AddedBy:     stringField(data, fieldAddedBy),
		UpdatedBy:   stringField(data, fieldUpdatedBy),
		Month:       intField(data, fieldMonth),
		Year:        intField(data, fieldYear),
	}

	if v, ok := data[fieldAmount].(float64); ok {
		t.Amount = core.Money{Cents: unitsToCents(v)}
	} else if v, ok := data[fieldAmount].(int64); ok {
		t.Amount = core.Money{Cents: v * 100}
	}

	// Missing or unreadable dates fall back to today
	if d, err := core.ParseDate(stringField(data, fieldDate)); err == nil {
		t.Date = d
	} else {
		t.Date = core.DateOf(time.Now())
	}

	// createdAt is nil in latency-compensated snapshots of our own pending
	// writes; the server-confirmed snapshot follows with the real value
	if v, ok := data[fieldCreatedAt].(time.Time); ok {
		t.CreatedAt = v
	}
	if v, ok := data[fieldUpdatedAt].(time.Time); ok {
		t.UpdatedAt = v
	}

	return t
}

func stringField(data map[string]interface{}, key string) string {
	v, _ := data[key].(string)
	return v
}

func intField(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// The collection stores amounts as plain currency units (the web client
// writes parseFloat results); cents are this repo's internal precision.
func centsToUnits(cents int64) float64 {
	return float64(cents) / 100
}

func unitsToCents(units float64) int64 {
	if units >= 0 {
		return int64(units*100 + 0.5)
	}
	return int64(units*100 - 0.5)
}

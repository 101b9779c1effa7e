// Package backend assembles a store implementation from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	changes "aidat/internal/amqp"
	"aidat/internal/config"
	"aidat/internal/store"
	fsstore "aidat/internal/store/firestore"
	"aidat/internal/store/memory"
	"aidat/internal/store/sqlite"
)

// Result bundles the assembled store with its background feed and cleanup.
type Result struct {
	Store store.Store

	// Feed runs the backend's change-notification loop until the context
	// ends. Nil when the backend has no remote feed to consume.
	Feed func(ctx context.Context) error

	// Cleanup releases everything the factory opened besides the store.
	Cleanup func() error
}

// New creates the store named by cfg.Backend.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "memory":
		logger.Info("Initialized memory backend", "backend", cfg.Backend)
		return &Result{Store: memory.New()}, nil

	case "sqlite":
		return newSQLite(cfg, logger)

	case "firestore":
		st, err := fsstore.New(ctx, fsstore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			Collection:      cfg.FirestoreCollection,
			CredentialsFile: cfg.FirestoreCredentials,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize firestore backend: %w", err)
		}
		logger.Info("Initialized firestore backend",
			"backend", cfg.Backend,
			"project", cfg.FirestoreProjectID,
			"collection", cfg.FirestoreCollection)
		return &Result{Store: st}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

func newSQLite(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	// AMQP is optional: without it the backend still pushes snapshots to
	// local subscribers, it just cannot see writes from other processes
	var notifier *changes.Client
	if cfg.AMQPURL != "" {
		var err error
		notifier, err = changes.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without remote change feed", "error", err)
			notifier = nil
		} else {
			logger.Info("Initialized AMQP change notifications", "exchange", cfg.AMQPExchange)
		}
	}

	repo, err := sqlite.Open(cfg.SQLiteDBPath, notifier)
	if err != nil {
		if notifier != nil {
			notifier.Close()
		}
		return nil, fmt.Errorf("initialize sqlite backend: %w", err)
	}

	logger.Info("Initialized sqlite backend",
		"backend", cfg.Backend,
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", notifier != nil)

	res := &Result{Store: repo}
	if notifier != nil {
		res.Feed = repo.StartChangeFeed
		res.Cleanup = notifier.Close
	}
	return res, nil
}

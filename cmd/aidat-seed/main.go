// aidat-seed loads a small demo data set through the configured backend,
// useful for local development against sqlite or the emulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"aidat/internal/backend"
	"aidat/internal/cli"
	"aidat/internal/core"
)

func main() {
	actor := flag.String("actor", core.AnonymousActor, "added_by value recorded on the seeded rows")
	flag.Parse()

	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	be, err := backend.New(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("Backend initialization failed", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}
	defer func() {
		if be.Cleanup != nil {
			_ = be.Cleanup()
		}
		_ = be.Store.Close()
	}()

	now := time.Now()
	month := int(now.Month())
	year := now.Year()

	drafts := []core.Draft{
		{Type: core.Income, Amount: "1000.00", Description: "monthly dues block A", Date: fmt.Sprintf("%04d-%02d-01", year, month)},
		{Type: core.Income, Amount: "850.00", Description: "monthly dues block B", Date: fmt.Sprintf("%04d-%02d-03", year, month)},
		{Type: core.Expense, Amount: "400.00", Description: "elevator maintenance", Date: fmt.Sprintf("%04d-%02d-12", year, month)},
		{Type: core.Expense, Amount: "120.50", Description: "stairwell cleaning", Date: fmt.Sprintf("%04d-%02d-15", year, month)},
		{Type: core.Expense, Amount: "35.90", Description: "light bulbs", Date: fmt.Sprintf("%04d-%02d-20", year, month)},
	}

	for _, d := range drafts {
		rec, err := d.Build(now)
		if err != nil {
			logger.Error("Invalid seed draft", "error", err, "description", d.Description)
			os.Exit(1)
		}
		id, err := be.Store.Create(ctx, rec, *actor)
		if err != nil {
			logger.Error("Seed write failed", "error", err, "description", d.Description)
			os.Exit(1)
		}
		logger.Info("Seeded transaction", "transaction_id", id, "type", string(rec.Type), "amount", core.FormatCents(rec.Amount.Cents))
	}

	logger.Info("Seed complete", "backend", cfg.Backend, "rows", len(drafts))
}

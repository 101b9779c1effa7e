package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"aidat/internal/backend"
	"aidat/internal/cli"
	apphttp "aidat/internal/http"
	"aidat/internal/ledger"
	"aidat/internal/notify"
	"aidat/internal/session"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
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

	sessions := session.NewManager()
	notes := notify.NewCenter(cfg.NotificationTTL)
	defer notes.Close()
	led := ledger.New(be.Store, sessions, notes)

	srv := apphttp.NewServer(":"+cfg.Port, led, sessions, notes)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting aidat server", "port", cfg.Port, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		// A listen failure leaves the ledger in its failed state but keeps
		// the server up so clients can see it.
		if err := led.Run(gctx); err != nil {
			logger.Error("Ledger subscription ended", "error", err)
		}
		return nil
	})

	if be.Feed != nil {
		g.Go(func() error {
			return be.Feed(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// Package http exposes the ledger over a JSON API. Reads are open to
// anyone; mutations go through the ledger core, which enforces the admin
// session and the pending-operation rules.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"aidat/internal/cache"
	"aidat/internal/ledger"
	"aidat/internal/middleware/ratelimit"
	"aidat/internal/middleware/security"
	"aidat/internal/middleware/trace"
	"aidat/internal/notify"
	"aidat/internal/session"
)

type Server struct {
	http.Server

	ledger   *ledger.Ledger
	sessions *session.Manager
	notes    *notify.Center

	// summary responses keyed by (revision, period); a new snapshot bumps
	// the revision and strands the old entries until the janitor sweeps
	summaryCache *cache.LRUCache[summaryJSON]
	janitor      *cache.Janitor
	limiter      *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, led *ledger.Ledger, sessions *session.Manager, notes *notify.Center) *Server {
	s := &Server{
		ledger:       led,
		sessions:     sessions,
		notes:        notes,
		summaryCache: cache.NewLRUCache[summaryJSON](128, 5*time.Minute),
		janitor:      cache.NewJanitor(),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	s.janitor.Register(s.summaryCache)
	s.janitor.Start(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleRequestDelete)
	mux.HandleFunc("POST /api/transactions/{id}/confirm", s.handleConfirmDelete)
	mux.HandleFunc("POST /api/transactions/{id}/cancel", s.handleCancelDelete)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("PUT /api/filter", s.handleSetFilter)

	mux.HandleFunc("POST /api/session", s.handleLogin)
	mux.HandleFunc("DELETE /api/session", s.handleLogout)
	mux.HandleFunc("GET /api/session", s.handleSessionInfo)

	mux.HandleFunc("GET /api/account", s.handleAccountInfo)

	mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.handleDismissNotification)

	tracer := trace.NewMiddleware(extractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(extractClientIP)

	s.Server = http.Server{
		Addr:    addr,
		Handler: headers.Middleware(tracer.Middleware(limited(mux))),
	}
	return s
}

// Shutdown stops the background routines and then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the first snapshot has arrived, and 503
// while loading or after a listen failure.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	v := s.ledger.View()
	if v.Loading || v.Failed != "" {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

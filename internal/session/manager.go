// Package session holds the single authenticated-actor slot. There is no
// token, no expiry and no persistence across restarts: a session exists
// between a successful login and an explicit logout, and anonymous viewers
// simply have none.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"aidat/internal/core"
)

// The credential pair is embedded at build time on purpose; swapping in a
// real credential store only requires replacing this package's Login.
const (
	adminUsername = "mithatkara"
	adminPassword = "marcelo123"
)

const RoleAdmin = "admin"

// ErrInvalidCredentials is returned on any login mismatch. It never says
// which of the two values was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNotAuthenticated is returned when an operation needs an admin session
// and none is active.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the current authenticated actor.
type Session struct {
	Name string
	Role string
}

// Manager owns the session slot, last write wins. The logout hook lets the
// ledger cancel any in-progress admin-only form state when the session
// ends; callers must treat logout as cancelling those.
type Manager struct {
	mu       sync.Mutex
	current  *Session
	onLogout func()
}

func NewManager() *Manager {
	return &Manager{}
}

// OnLogout registers the hook invoked after every logout.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	m.onLogout = fn
	m.mu.Unlock()
}

// Login succeeds only when both values match the embedded pair.
func (m *Manager) Login(username, password string) (Session, error) {
	if username != adminUsername || password != adminPassword {
		return Session{}, ErrInvalidCredentials
	}

	s := Session{Name: adminUsername, Role: RoleAdmin}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	slog.Info("Session started", "actor", s.Name, "role", s.Role)
	return s, nil
}

// Logout clears the session unconditionally and fires the logout hook.
func (m *Manager) Logout() {
	m.mu.Lock()
	had := m.current != nil
	m.current = nil
	hook := m.onLogout
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if had {
		slog.Info("Session ended")
	}
}

// Current returns the active session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// IsAdmin reports whether an admin session is active.
func (m *Manager) IsAdmin() bool {
	s, ok := m.Current()
	return ok && s.Role == RoleAdmin
}

// Actor returns the name to record on writes: the session name, or the
// anonymous marker when nobody is logged in.
func (m *Manager) Actor() string {
	if s, ok := m.Current(); ok {
		return s.Name
	}
	return core.AnonymousActor
}

package session

import (
	"testing"

	"aidat/internal/core"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid pair", "mithatkara", "marcelo123", nil},
		{"wrong password", "mithatkara", "wrong", ErrInvalidCredentials},
		{"wrong username", "x", "marcelo123", ErrInvalidCredentials},
		{"both wrong", "", "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			s, err := m.Login(tt.username, tt.password)
			if err != tt.wantErr {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if _, ok := m.Current(); ok {
					t.Fatal("failed login must not create a session")
				}
				return
			}
			if s.Name != "mithatkara" || s.Role != RoleAdmin {
				t.Fatalf("session = %+v", s)
			}
			if !m.IsAdmin() {
				t.Fatal("IsAdmin() = false after admin login")
			}
		})
	}
}

func TestLogoutClearsSessionAndFiresHook(t *testing.T) {
	m := NewManager()
	hookFired := 0
	m.OnLogout(func() { hookFired++ })

	if _, err := m.Login("mithatkara", "marcelo123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	m.Logout()

	if _, ok := m.Current(); ok {
		t.Fatal("session must be cleared by logout")
	}
	if hookFired != 1 {
		t.Fatalf("logout hook fired %d times, want 1", hookFired)
	}

	// Logout with no session is still unconditional and still cancels
	// caller-owned form state
	m.Logout()
	if hookFired != 2 {
		t.Fatalf("logout hook fired %d times, want 2", hookFired)
	}
}

func TestActor(t *testing.T) {
	m := NewManager()
	if got := m.Actor(); got != core.AnonymousActor {
		t.Fatalf("anonymous actor = %q", got)
	}

	m.Login("mithatkara", "marcelo123")
	if got := m.Actor(); got != "mithatkara" {
		t.Fatalf("actor = %q", got)
	}
}

func TestLastWriteWins(t *testing.T) {
	m := NewManager()
	m.Login("mithatkara", "marcelo123")
	m.Login("mithatkara", "marcelo123")
	if s, ok := m.Current(); !ok || s.Name != "mithatkara" {
		t.Fatalf("session = %+v, %v", s, ok)
	}
}

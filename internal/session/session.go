// Package session holds the single authenticated user of the process.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/kvstore"
	"github.com/listenupapp/shelfwise/internal/logger"
)

// LastUserStore persists small values on the device.
// kvstore.Store satisfies it.
type LastUserStore interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, out any) error
	Remove(ctx context.Context, key string) error
}

var _ LastUserStore = (*kvstore.Store)(nil)

// State is a snapshot of the session.
type State struct {
	User          *domain.User `json:"user"`
	Authenticated bool         `json:"authenticated"`
}

// Session is the process-wide authentication state.
// Only Login and Logout change it.
type Session struct {
	mu    sync.RWMutex
	state State

	local  LastUserStore
	logger *slog.Logger
}

// New creates an anonymous session. local may be nil.
func New(local LastUserStore, log *slog.Logger) *Session {
	return &Session{
		local:  local,
		logger: logger.OrDiscard(log).With("component", "session"),
	}
}

// Login makes user the authenticated user, replacing any previous one.
func (s *Session) Login(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{User: user.Clone(), Authenticated: user != nil}
	if user != nil {
		s.logger.Info("user logged in", "username", user.Username)
	}
}

// Logout clears the session and forgets the last user on the device.
// The session is cleared even if the device store fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	prev := s.state.User
	s.state = State{}
	s.mu.Unlock()

	if prev != nil {
		s.logger.Info("user logged out", "username", prev.Username)
	}

	if s.local == nil {
		return nil
	}
	if err := s.local.Remove(ctx, kvstore.LastUserKey); err != nil {
		return errors.From(err)
	}
	return nil
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{User: s.state.User.Clone(), Authenticated: s.state.Authenticated}
}

// User returns a copy of the authenticated user, or nil.
func (s *Session) User() *domain.User {
	return s.State().User
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

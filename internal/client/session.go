// Package client is the terminal side of CodeVault: an API client plus the
// session that keeps one bearer token across invocations.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/codevault/internal/api/models"
)

// ErrAccessDenied is the only error a failed login surfaces, whatever the cause.
var ErrAccessDenied = errors.New("access denied")

// State is a snapshot of the session.
type State struct {
	User    *models.User
	Loading bool
}

// Session owns the stored token and the current user.
type Session struct {
	api   *Client
	store TokenStore

	mu      sync.RWMutex
	user    *models.User
	loading bool
}

// NewSession creates a logged-out session.
func NewSession(api *Client, store TokenStore) *Session {
	return &Session{
		api:   api,
		store: store,
	}
}

// API returns the client the session talks through.
func (s *Session) API() *Client {
	return s.api
}

// Current returns the session state.
func (s *Session) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{Loading: s.loading}
	if s.user != nil {
		u := *s.user
		state.User = &u
	}
	return state
}

// Token returns the stored token, empty if logged out.
func (s *Session) Token() string {
	token, err := s.store.Load()
	if err != nil {
		log.Warn("Failed to load token", "error", err)
		return ""
	}
	return token
}

// Init rehydrates the session from the stored token.
// Any failure clears the stored token and leaves the session logged out.
func (s *Session) Init(ctx context.Context) State {
	token, err := s.store.Load()
	if err != nil {
		log.Warn("Failed to load token", "error", err)
		s.clear()
		return s.Current()
	}
	if token == "" {
		return s.Current()
	}

	s.setLoading(true)
	user, err := s.api.Whoami(ctx, token)
	s.setLoading(false)

	if err != nil {
		log.Debug("Stored token rejected", "error", err)
		s.clear()
		return s.Current()
	}

	s.setUser(user)
	return s.Current()
}

// Login authenticates and stores the new token. Any failure yields ErrAccessDenied
// and stores nothing.
func (s *Session) Login(ctx context.Context, username, accessKey, device string) (*models.User, error) {
	s.setLoading(true)
	resp, err := s.api.Login(ctx, username, accessKey, device)
	s.setLoading(false)

	if err != nil {
		log.Debug("Login failed", "username", username, "error", err)
		return nil, ErrAccessDenied
	}

	if err := s.store.Save(resp.Token); err != nil {
		log.Error("Failed to store token", "error", err)
		if err := s.api.Logout(ctx, resp.Token); err != nil {
			log.Warn("Failed to revoke unsaved token", "error", err)
		}
		return nil, ErrAccessDenied
	}

	user := resp.User
	s.setUser(&user)
	return &user, nil
}

// Logout revokes the token on the server on a best-effort basis and always
// clears the local state.
func (s *Session) Logout(ctx context.Context) {
	token, err := s.store.Load()
	if err != nil {
		log.Warn("Failed to load token", "error", err)
	}

	if token != "" {
		s.setLoading(true)
		if err := s.api.Logout(ctx, token); err != nil {
			log.Warn("Failed to revoke token on server", "error", err)
		}
		s.setLoading(false)
	}

	s.clear()
}

func (s *Session) clear() {
	if err := s.store.Clear(); err != nil {
		log.Error("Failed to clear stored token", "error", err)
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

func (s *Session) setUser(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// Package session owns the authenticated identity for one client process
// and the event channel that goes with it. The connection is an injected,
// session-scoped resource: it lives and dies with the session, not with
// package initialization.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/authapi"
	"github.com/comrade-chat/comrade-client/internal/transport"
)

var ErrNoCredentials = errors.New("no session credentials configured")

type Session struct {
	conf      *config.Config
	auth      authapi.Client
	transport *transport.Manager

	mu     sync.RWMutex
	user   models.User
	tokens models.Tokens
}

func New(conf *config.Config, auth authapi.Client, tm *transport.Manager) *Session {
	return &Session{
		conf:      conf,
		auth:      auth,
		transport: tm,
	}
}

// Start authenticates the session: either adopting a pre-issued access token
// or logging in with the configured credentials.
func (s *Session) Start(ctx context.Context) error {
	sc := s.conf.Session

	switch {
	case sc.AccessToken != "":
		user, err := s.auth.Me(ctx, sc.AccessToken)
		if err != nil {
			return fmt.Errorf("adopt access token: %w", err)
		}
		s.set(*user, models.Tokens{AccessToken: sc.AccessToken})
	case sc.Email != "" && sc.Password != "":
		res, err := s.auth.Login(ctx, models.LoginParams{Email: sc.Email, Password: sc.Password})
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		s.set(res.User, res.Tokens)
	default:
		return ErrNoCredentials
	}

	log.Infow(ctx, "session started", "user_id", s.CurrentUser().ID)
	return nil
}

// Refresh trades the refresh token for a new pair.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	refresh := s.tokens.RefreshToken
	user := s.user
	s.mu.RUnlock()
	if refresh == "" {
		return ErrNoCredentials
	}

	tokens, err := s.auth.Refresh(ctx, refresh)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	s.set(user, *tokens)
	return nil
}

func (s *Session) set(user models.User, tokens models.Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.tokens = tokens
}

// AccessToken satisfies the repo clients' TokenSource.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Session) CurrentUser() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Connection returns the shared event channel, dialing it on first use.
func (s *Session) Connection(ctx context.Context) (*transport.Conn, error) {
	return s.transport.Connect(ctx, s.AccessToken())
}

// Close tears down the event channel.
func (s *Session) Close() error {
	return s.transport.Close()
}

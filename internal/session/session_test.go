package session

import (
	"context"
	"errors"
	"testing"

	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/authapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthAPI struct {
	loginCalls   int
	loginErr     error
	meCalls      int
	refreshCalls int
	lastRefresh  string
}

func (f *fakeAuthAPI) Register(ctx context.Context, params models.RegisterParams) (*authapi.Session, error) {
	return nil, errors.New("not used")
}

func (f *fakeAuthAPI) Login(ctx context.Context, params models.LoginParams) (*authapi.Session, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &authapi.Session{
		User:   models.User{ID: "u1", Email: params.Email},
		Tokens: models.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"},
	}, nil
}

func (f *fakeAuthAPI) Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error) {
	f.refreshCalls++
	f.lastRefresh = refreshToken
	return &models.Tokens{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (f *fakeAuthAPI) Me(ctx context.Context, accessToken string) (*models.User, error) {
	f.meCalls++
	return &models.User{ID: "u-token", ComradeHandle: "trotsky"}, nil
}

func (f *fakeAuthAPI) VerifyEmail(ctx context.Context, params models.VerifyEmailParams) error {
	return nil
}

func (f *fakeAuthAPI) ResendVerification(ctx context.Context, email string) error {
	return nil
}

func TestSessionStart(t *testing.T) {
	t.Parallel()

	t.Run("adopts a pre-issued token", func(t *testing.T) {
		conf := &config.Config{}
		conf.Session.AccessToken = "pre-issued"
		auth := &fakeAuthAPI{}
		s := New(conf, auth, nil)

		require.NoError(t, s.Start(context.Background()))
		assert.Equal(t, "u-token", s.CurrentUser().ID)
		assert.Equal(t, "pre-issued", s.AccessToken())
		assert.Equal(t, 1, auth.meCalls)
		assert.Zero(t, auth.loginCalls)
	})

	t.Run("logs in with credentials", func(t *testing.T) {
		conf := &config.Config{}
		conf.Session.Email = "user@example.com"
		conf.Session.Password = "hunter2"
		auth := &fakeAuthAPI{}
		s := New(conf, auth, nil)

		require.NoError(t, s.Start(context.Background()))
		assert.Equal(t, "u1", s.CurrentUser().ID)
		assert.Equal(t, "access-1", s.AccessToken())
	})

	t.Run("token wins over credentials", func(t *testing.T) {
		conf := &config.Config{}
		conf.Session.AccessToken = "pre-issued"
		conf.Session.Email = "user@example.com"
		conf.Session.Password = "hunter2"
		auth := &fakeAuthAPI{}
		s := New(conf, auth, nil)

		require.NoError(t, s.Start(context.Background()))
		assert.Zero(t, auth.loginCalls)
	})

	t.Run("nothing configured", func(t *testing.T) {
		s := New(&config.Config{}, &fakeAuthAPI{}, nil)
		assert.ErrorIs(t, s.Start(context.Background()), ErrNoCredentials)
	})

	t.Run("login failure surfaces", func(t *testing.T) {
		conf := &config.Config{}
		conf.Session.Email = "user@example.com"
		conf.Session.Password = "wrong"
		auth := &fakeAuthAPI{loginErr: errors.New("bad credentials")}
		s := New(conf, auth, nil)

		err := s.Start(context.Background())
		require.Error(t, err)
		assert.Empty(t, s.AccessToken())
	})
}

func TestSessionRefresh(t *testing.T) {
	t.Parallel()

	t.Run("rotates the token pair", func(t *testing.T) {
		conf := &config.Config{}
		conf.Session.Email = "user@example.com"
		conf.Session.Password = "hunter2"
		auth := &fakeAuthAPI{}
		s := New(conf, auth, nil)
		require.NoError(t, s.Start(context.Background()))

		require.NoError(t, s.Refresh(context.Background()))
		assert.Equal(t, "refresh-1", auth.lastRefresh)
		assert.Equal(t, "access-2", s.AccessToken())
		assert.Equal(t, "u1", s.CurrentUser().ID, "identity survives the rotation")
	})

	t.Run("no refresh token available", func(t *testing.T) {
		conf := &config.Config{}
		conf.Session.AccessToken = "pre-issued"
		s := New(conf, &fakeAuthAPI{}, nil)
		require.NoError(t, s.Start(context.Background()))

		assert.ErrorIs(t, s.Refresh(context.Background()), ErrNoCredentials)
	})
}

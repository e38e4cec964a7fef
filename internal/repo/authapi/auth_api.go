package authapi

import (
	"context"
	"fmt"

	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/resterr"
	"github.com/comrade-chat/comrade-client/pkg/util"
	"github.com/go-resty/resty/v2"
)

// Session is the authenticated user plus the token pair issued for them.
type Session struct {
	User   models.User   `json:"user"`
	Tokens models.Tokens `json:"tokens"`
}

type Client interface {
	Register(ctx context.Context, params models.RegisterParams) (*Session, error)
	Login(ctx context.Context, params models.LoginParams) (*Session, error)
	// Refresh trades the refresh token for a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error)
	Me(ctx context.Context, accessToken string) (*models.User, error)
	VerifyEmail(ctx context.Context, params models.VerifyEmailParams) error
	ResendVerification(ctx context.Context, email string) error
}

type authAPIClient struct {
	http *resty.Client
}

func NewClient(conf *config.Config) Client {
	return &authAPIClient{
		http: util.NewRestyClient(conf.API.Timeout).SetBaseURL(conf.API.BaseURL),
	}
}

func (c *authAPIClient) Register(ctx context.Context, params models.RegisterParams) (*Session, error) {
	var out Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&out).
		Post("/auth/register")
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &out, nil
}

func (c *authAPIClient) Login(ctx context.Context, params models.LoginParams) (*Session, error) {
	var out Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

func (c *authAPIClient) Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error) {
	var out struct {
		Tokens models.Tokens `json:"tokens"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(refreshToken).
		SetBody(map[string]string{}).
		SetResult(&out).
		Post("/auth/refresh")
	if err != nil {
		return nil, fmt.Errorf("refresh tokens: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("refresh tokens: %w", err)
	}
	return &out.Tokens, nil
}

func (c *authAPIClient) Me(ctx context.Context, accessToken string) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Get("/auth/me")
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &out.User, nil
}

func (c *authAPIClient) VerifyEmail(ctx context.Context, params models.VerifyEmailParams) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(params).
		Post("/auth/verify-email")
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	return nil
}

func (c *authAPIClient) ResendVerification(ctx context.Context, email string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		Post("/auth/resend-verification")
	if err != nil {
		return fmt.Errorf("resend verification: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return fmt.Errorf("resend verification: %w", err)
	}
	return nil
}

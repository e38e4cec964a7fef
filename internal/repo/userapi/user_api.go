package userapi

import (
	"context"
	"fmt"

	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/resterr"
	"github.com/comrade-chat/comrade-client/pkg/util"
	"github.com/go-resty/resty/v2"
)

type TokenSource interface {
	AccessToken() string
}

type Client interface {
	GetMe(ctx context.Context) (*models.User, error)
	UpdateMe(ctx context.Context, params models.UpdateProfileParams) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	BlockUser(ctx context.Context, userID string) error
	UnblockUser(ctx context.Context, userID string) error
	MuteUser(ctx context.Context, userID string) error
	UnmuteUser(ctx context.Context, userID string) error
	ReportUser(ctx context.Context, userID, reason string) error
}

type userAPIClient struct {
	http   *resty.Client
	tokens TokenSource
}

func NewClient(conf *config.Config, tokens TokenSource) Client {
	return &userAPIClient{
		http:   util.NewRestyClient(conf.API.Timeout).SetBaseURL(conf.API.BaseURL),
		tokens: tokens,
	}
}

func (c *userAPIClient) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(c.tokens.AccessToken())
}

func (c *userAPIClient) GetMe(ctx context.Context) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	resp, err := c.request(ctx).SetResult(&out).Get("/users/me")
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &out.User, nil
}

func (c *userAPIClient) UpdateMe(ctx context.Context, params models.UpdateProfileParams) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	resp, err := c.request(ctx).
		SetBody(params).
		SetResult(&out).
		Patch("/users/me")
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &out.User, nil
}

func (c *userAPIClient) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	resp, err := c.request(ctx).
		SetQueryParam("q", query).
		SetResult(&out).
		Get("/users/search")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return out.Users, nil
}

func (c *userAPIClient) BlockUser(ctx context.Context, userID string) error {
	return c.postAction(ctx, userID, "block", nil)
}

func (c *userAPIClient) UnblockUser(ctx context.Context, userID string) error {
	return c.postAction(ctx, userID, "unblock", nil)
}

func (c *userAPIClient) MuteUser(ctx context.Context, userID string) error {
	return c.postAction(ctx, userID, "mute", nil)
}

func (c *userAPIClient) UnmuteUser(ctx context.Context, userID string) error {
	return c.postAction(ctx, userID, "unmute", nil)
}

func (c *userAPIClient) ReportUser(ctx context.Context, userID, reason string) error {
	return c.postAction(ctx, userID, "report", map[string]string{"reason": reason})
}

func (c *userAPIClient) postAction(ctx context.Context, userID, action string, body any) error {
	req := c.request(ctx).
		SetPathParams(map[string]string{"userId": userID, "action": action})
	if body == nil {
		body = map[string]string{}
	}
	resp, err := req.SetBody(body).Post("/users/{userId}/{action}")
	if err != nil {
		return fmt.Errorf("%s user %s: %w", action, userID, err)
	}
	if err := resterr.From(resp); err != nil {
		return fmt.Errorf("%s user %s: %w", action, userID, err)
	}
	return nil
}

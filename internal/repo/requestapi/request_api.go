package requestapi

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
	Incoming(ctx context.Context) ([]models.ContactRequest, error)
	Outgoing(ctx context.Context) ([]models.ContactRequest, error)
	Send(ctx context.Context, recipientID string) (*models.ContactRequest, error)
	Accept(ctx context.Context, requestID string) error
	Reject(ctx context.Context, requestID string) error
}

type requestAPIClient struct {
	http   *resty.Client
	tokens TokenSource
}

func NewClient(conf *config.Config, tokens TokenSource) Client {
	return &requestAPIClient{
		http:   util.NewRestyClient(conf.API.Timeout).SetBaseURL(conf.API.BaseURL),
		tokens: tokens,
	}
}

func (c *requestAPIClient) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(c.tokens.AccessToken())
}

func (c *requestAPIClient) Incoming(ctx context.Context) ([]models.ContactRequest, error) {
	return c.list(ctx, "/requests/incoming")
}

func (c *requestAPIClient) Outgoing(ctx context.Context) ([]models.ContactRequest, error) {
	return c.list(ctx, "/requests/outgoing")
}

func (c *requestAPIClient) list(ctx context.Context, path string) ([]models.ContactRequest, error) {
	var out struct {
		Requests []models.ContactRequest `json:"requests"`
	}
	resp, err := c.request(ctx).SetResult(&out).Get(path)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out.Requests, nil
}

func (c *requestAPIClient) Send(ctx context.Context, recipientID string) (*models.ContactRequest, error) {
	var out struct {
		Request models.ContactRequest `json:"request"`
	}
	resp, err := c.request(ctx).
		SetBody(map[string]string{"recipientId": recipientID}).
		SetResult(&out).
		Post("/requests")
	if err != nil {
		return nil, fmt.Errorf("send request to %s: %w", recipientID, err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("send request to %s: %w", recipientID, err)
	}
	return &out.Request, nil
}

func (c *requestAPIClient) Accept(ctx context.Context, requestID string) error {
	return c.act(ctx, requestID, "accept")
}

func (c *requestAPIClient) Reject(ctx context.Context, requestID string) error {
	return c.act(ctx, requestID, "reject")
}

func (c *requestAPIClient) act(ctx context.Context, requestID, action string) error {
	resp, err := c.request(ctx).
		SetPathParams(map[string]string{"requestId": requestID, "action": action}).
		SetBody(map[string]string{}).
		Post("/requests/{requestId}/{action}")
	if err != nil {
		return fmt.Errorf("%s request %s: %w", action, requestID, err)
	}
	if err := resterr.From(resp); err != nil {
		return fmt.Errorf("%s request %s: %w", action, requestID, err)
	}
	return nil
}

package chatapi

import (
	"context"
	"fmt"
	"time"

	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/resterr"
	"github.com/comrade-chat/comrade-client/pkg/util"
	"github.com/go-resty/resty/v2"
)

// TokenSource provides the current access token for authenticated calls.
type TokenSource interface {
	AccessToken() string
}

// GetMessagesParams selects a history page. A nil Before means "most recent
// page"; otherwise the page holds only messages strictly older than Before.
type GetMessagesParams struct {
	Before *time.Time
	Limit  int
}

type Client interface {
	ListChats(ctx context.Context) ([]models.Chat, error)
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	// GetMessages returns one ordered page, oldest first. Fewer than
	// params.Limit items (including zero) means no older history exists.
	GetMessages(ctx context.Context, chatID string, params GetMessagesParams) ([]models.Message, error)
	SendMessage(ctx context.Context, chatID string, payload models.OutgoingMessage) error
	React(ctx context.Context, messageID string, reaction models.ReactionType) error
	RemoveReaction(ctx context.Context, messageID string) error
}

type chatAPIClient struct {
	http   *resty.Client
	tokens TokenSource
}

func NewClient(conf *config.Config, tokens TokenSource) Client {
	http := util.NewRestyClient(conf.API.Timeout).SetBaseURL(conf.API.BaseURL)
	return &chatAPIClient{
		http:   http,
		tokens: tokens,
	}
}

func (c *chatAPIClient) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(c.tokens.AccessToken())
}

func (c *chatAPIClient) ListChats(ctx context.Context) ([]models.Chat, error) {
	var out struct {
		Chats []models.Chat `json:"chats"`
	}
	resp, err := c.request(ctx).
		SetResult(&out).
		Get("/chats")
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return out.Chats, nil
}

func (c *chatAPIClient) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var out struct {
		Chat models.Chat `json:"chat"`
	}
	resp, err := c.request(ctx).
		SetResult(&out).
		SetPathParam("chatId", chatID).
		Get("/chats/{chatId}")
	if err != nil {
		return nil, fmt.Errorf("get chat %s: %w", chatID, err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("get chat %s: %w", chatID, err)
	}
	return &out.Chat, nil
}

func (c *chatAPIClient) GetMessages(ctx context.Context, chatID string, params GetMessagesParams) ([]models.Message, error) {
	req := c.request(ctx).SetPathParam("chatId", chatID)
	if params.Before != nil {
		req.SetQueryParam("before", params.Before.UTC().Format(time.RFC3339Nano))
	}
	if params.Limit > 0 {
		req.SetQueryParam("limit", fmt.Sprint(params.Limit))
	}

	var out struct {
		Messages []models.Message `json:"messages"`
	}
	resp, err := req.SetResult(&out).Get("/chats/{chatId}/messages")
	if err != nil {
		return nil, fmt.Errorf("get messages for chat %s: %w", chatID, err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("get messages for chat %s: %w", chatID, err)
	}
	return out.Messages, nil
}

func (c *chatAPIClient) SendMessage(ctx context.Context, chatID string, payload models.OutgoingMessage) error {
	resp, err := c.request(ctx).
		SetPathParam("chatId", chatID).
		SetBody(payload).
		Post("/chats/{chatId}/messages")
	if err != nil {
		return fmt.Errorf("send message to chat %s: %w", chatID, err)
	}
	if err := resterr.From(resp); err != nil {
		return fmt.Errorf("send message to chat %s: %w", chatID, err)
	}
	return nil
}

func (c *chatAPIClient) React(ctx context.Context, messageID string, reaction models.ReactionType) error {
	resp, err := c.request(ctx).
		SetPathParam("messageId", messageID).
		SetBody(map[string]models.ReactionType{"type": reaction}).
		Post("/chats/messages/{messageId}/react")
	if err != nil {
		return fmt.Errorf("react to message %s: %w", messageID, err)
	}
	if err := resterr.From(resp); err != nil {
		return fmt.Errorf("react to message %s: %w", messageID, err)
	}
	return nil
}

func (c *chatAPIClient) RemoveReaction(ctx context.Context, messageID string) error {
	resp, err := c.request(ctx).
		SetPathParam("messageId", messageID).
		Delete("/chats/messages/{messageId}/react")
	if err != nil {
		return fmt.Errorf("remove reaction from message %s: %w", messageID, err)
	}
	if err := resterr.From(resp); err != nil {
		return fmt.Errorf("remove reaction from message %s: %w", messageID, err)
	}
	return nil
}

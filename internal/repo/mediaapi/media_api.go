package mediaapi

import (
	"context"
	"fmt"
	"io"

	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/resterr"
	"github.com/comrade-chat/comrade-client/pkg/util"
	"github.com/go-resty/resty/v2"
)

type TokenSource interface {
	AccessToken() string
}

// Client uploads media out of band. The returned asset is then referenced in
// a regular media message send; the upload itself creates no message.
type Client interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*models.MediaAsset, error)
}

type mediaAPIClient struct {
	http   *resty.Client
	tokens TokenSource
}

func NewClient(conf *config.Config, tokens TokenSource) Client {
	return &mediaAPIClient{
		http:   util.NewRestyClient(conf.API.Timeout).SetBaseURL(conf.API.BaseURL),
		tokens: tokens,
	}
}

func (c *mediaAPIClient) Upload(ctx context.Context, filename string, body io.Reader) (*models.MediaAsset, error) {
	var out models.MediaAsset
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.tokens.AccessToken()).
		SetFileReader("file", filename, body).
		SetResult(&out).
		Post("/media/upload")
	if err != nil {
		return nil, fmt.Errorf("upload media %s: %w", filename, err)
	}
	if err := resterr.From(resp); err != nil {
		return nil, fmt.Errorf("upload media %s: %w", filename, err)
	}
	return &out, nil
}

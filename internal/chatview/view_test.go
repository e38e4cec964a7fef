package chatview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/carousell/ct-go/pkg/logger"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/chatapi"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatAPI struct {
	mu         sync.Mutex
	page       []models.Message
	getErr     error
	getCalls   int
	lastParams chatapi.GetMessagesParams
	blockGet   chan struct{}

	sent    []models.OutgoingMessage
	sendErr error

	reacted []string
	removed []string
}

func (f *fakeChatAPI) ListChats(ctx context.Context) ([]models.Chat, error) { return nil, nil }

func (f *fakeChatAPI) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	return nil, models.ErrNotFound
}

func (f *fakeChatAPI) GetMessages(ctx context.Context, chatID string, params chatapi.GetMessagesParams) ([]models.Message, error) {
	f.mu.Lock()
	f.getCalls++
	f.lastParams = params
	block := f.blockGet
	err := f.getErr
	page := f.page
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (f *fakeChatAPI) SendMessage(ctx context.Context, chatID string, payload models.OutgoingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeChatAPI) React(ctx context.Context, messageID string, reaction models.ReactionType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reacted = append(f.reacted, messageID)
	return nil
}

func (f *fakeChatAPI) RemoveReaction(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, messageID)
	return nil
}

func (f *fakeChatAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

type fakeMediaAPI struct {
	asset models.MediaAsset
	err   error
}

func (f *fakeMediaAPI) Upload(ctx context.Context, filename string, body io.Reader) (*models.MediaAsset, error) {
	if f.err != nil {
		return nil, f.err
	}
	asset := f.asset
	return &asset, nil
}

func newTestView(chats *fakeChatAPI, media *fakeMediaAPI) *View {
	return &View{
		chatID:   "chat-1",
		userID:   "me",
		pageSize: 5,
		rec:      NewReconciler("chat-1", 5),
		comp:     NewComposer(),
		chats:    chats,
		media:    media,
		log:      logger.MustNamed("chatview-test"),
		validate: validator.New(),
		metrics: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "chat_view_operations_test",
		}, []string{"op", "status"}),
		open: true,
	}
}

func TestViewHydrate(t *testing.T) {
	t.Parallel()

	api := &fakeChatAPI{page: page("m", 0, 5, time.Minute)}
	v := newTestView(api, &fakeMediaAPI{})

	require.NoError(t, v.hydrate(context.Background()))
	assert.Equal(t, 5, v.rec.Len())
	assert.True(t, v.HasMoreHistory())
	assert.Equal(t, 5, api.lastParams.Limit)
	assert.Nil(t, api.lastParams.Before)
}

func TestViewLoadOlder(t *testing.T) {
	t.Parallel()

	t.Run("fetches the page before the oldest message", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 10, 5, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))

		api.mu.Lock()
		api.page = page("old", 0, 3, time.Minute)
		api.mu.Unlock()

		require.NoError(t, v.LoadOlder(context.Background()))
		assert.Equal(t, 8, v.rec.Len())
		assert.False(t, v.HasMoreHistory())
		require.NotNil(t, api.lastParams.Before)
		assert.Equal(t, baseTime.Add(10*time.Minute), *api.lastParams.Before)
	})

	t.Run("fetch failure leaves pagination state alone", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 10, 5, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))

		api.mu.Lock()
		api.getErr = errors.New("backend down")
		api.mu.Unlock()

		err := v.LoadOlder(context.Background())
		require.Error(t, err)
		assert.True(t, v.HasMoreHistory(), "retry must stay possible after a failure")
		assert.Equal(t, 5, v.rec.Len())
	})

	t.Run("concurrent triggers cause a single fetch", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 10, 5, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))

		release := make(chan struct{})
		api.mu.Lock()
		api.page = page("old", 0, 3, time.Minute)
		api.blockGet = release
		api.mu.Unlock()

		done := make(chan error, 1)
		go func() { done <- v.LoadOlder(context.Background()) }()

		// wait for the in-flight fetch to claim the slot
		require.Eventually(t, func() bool { return api.calls() == 2 }, time.Second, time.Millisecond)

		require.NoError(t, v.LoadOlder(context.Background()), "second trigger is a silent no-op")
		assert.Equal(t, 2, api.calls())

		close(release)
		require.NoError(t, <-done)
		assert.Equal(t, 8, v.rec.Len())
	})

	t.Run("no trigger once history is exhausted", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 0, 2, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))
		require.False(t, v.HasMoreHistory())

		require.NoError(t, v.LoadOlder(context.Background()))
		assert.Equal(t, 1, api.calls())
	})
}

func TestViewSend(t *testing.T) {
	t.Parallel()

	t.Run("submits draft without local echo", func(t *testing.T) {
		api := &fakeChatAPI{}
		v := newTestView(api, &fakeMediaAPI{})
		v.SetDraft("hello")

		require.NoError(t, v.Send(context.Background()))
		require.Len(t, api.sent, 1)
		assert.Equal(t, "hello", api.sent[0].Text)
		assert.Empty(t, v.Draft())
		assert.Equal(t, 0, v.rec.Len(), "confirmed copy arrives over the event channel only")
	})

	t.Run("empty draft never reaches the backend", func(t *testing.T) {
		api := &fakeChatAPI{}
		v := newTestView(api, &fakeMediaAPI{})

		err := v.Send(context.Background())
		assert.ErrorIs(t, err, models.ErrEmptySend)
		assert.Empty(t, api.sent)
	})

	t.Run("send failure does not restore the draft", func(t *testing.T) {
		api := &fakeChatAPI{sendErr: errors.New("backend down")}
		v := newTestView(api, &fakeMediaAPI{})
		v.SetDraft("lost words")

		require.Error(t, v.Send(context.Background()))
		assert.Empty(t, v.Draft())
	})

	t.Run("reply reference resolves from loaded messages", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 0, 3, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))

		require.NoError(t, v.AttachReply("m-1"))
		v.SetDraft("replying")
		require.NoError(t, v.Send(context.Background()))

		require.Len(t, api.sent, 1)
		assert.Equal(t, "m-1", api.sent[0].ReplyTo)
	})

	t.Run("reply to unloaded message fails", func(t *testing.T) {
		v := newTestView(&fakeChatAPI{}, &fakeMediaAPI{})
		assert.ErrorIs(t, v.AttachReply("ghost"), models.ErrNotFound)
	})
}

func TestViewSendMedia(t *testing.T) {
	t.Parallel()

	api := &fakeChatAPI{}
	media := &fakeMediaAPI{asset: models.MediaAsset{
		MediaURL:      "https://cdn.example/pic.jpg",
		MediaType:     models.MediaTypeImage,
		MediaPublicID: "pic-1",
	}}
	v := newTestView(api, media)
	v.SetDraft("still typing")

	require.NoError(t, v.SendMedia(context.Background(), "pic.jpg", nil))

	require.Len(t, api.sent, 1)
	assert.Equal(t, models.MessageTypeMedia, api.sent[0].Type)
	assert.Equal(t, "https://cdn.example/pic.jpg", api.sent[0].MediaURL)
	assert.Equal(t, "still typing", v.Draft())
}

func TestViewToggleReaction(t *testing.T) {
	t.Parallel()

	hydrated := func(t *testing.T, reactions []models.Reaction) (*View, *fakeChatAPI) {
		t.Helper()
		initial := page("m", 0, 3, time.Minute)
		initial[1].Reactions = reactions
		api := &fakeChatAPI{page: initial}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))
		return v, api
	}

	t.Run("first reaction adds", func(t *testing.T) {
		v, api := hydrated(t, nil)
		require.NoError(t, v.ToggleReaction(context.Background(), "m-1", models.ReactionLike))
		assert.Equal(t, []string{"m-1"}, api.reacted)
		assert.Empty(t, api.removed)
	})

	t.Run("same type removes", func(t *testing.T) {
		v, api := hydrated(t, []models.Reaction{{User: "me", Type: models.ReactionLike}})
		require.NoError(t, v.ToggleReaction(context.Background(), "m-1", models.ReactionLike))
		assert.Equal(t, []string{"m-1"}, api.removed)
		assert.Empty(t, api.reacted)
	})

	t.Run("different type switches", func(t *testing.T) {
		v, api := hydrated(t, []models.Reaction{{User: "me", Type: models.ReactionLike}})
		require.NoError(t, v.ToggleReaction(context.Background(), "m-1", models.ReactionLove))
		assert.Equal(t, []string{"m-1"}, api.reacted)
		assert.Empty(t, api.removed)
	})

	t.Run("unknown message", func(t *testing.T) {
		v, _ := hydrated(t, nil)
		assert.ErrorIs(t, v.ToggleReaction(context.Background(), "ghost", models.ReactionLike), models.ErrNotFound)
	})

	t.Run("unknown reaction type", func(t *testing.T) {
		v, _ := hydrated(t, nil)
		assert.Error(t, v.ToggleReaction(context.Background(), "m-1", "dislike"))
	})
}

func TestViewLiveHandlers(t *testing.T) {
	t.Parallel()

	t.Run("new message event is applied", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 0, 3, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))

		ev := models.NewMessageEvent{ChatID: "chat-1", Message: msg("live", time.Hour)}
		raw, err := json.Marshal(ev)
		require.NoError(t, err)

		v.handleNewMessage(raw)
		assert.Equal(t, 4, v.rec.Len())
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 0, 3, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))

		v.handleNewMessage(json.RawMessage(`{"chatId": 42}`))
		v.handleNewMessage(json.RawMessage(`{"message": {"id": "orphan"}}`))
		assert.Equal(t, 3, v.rec.Len())
	})

	t.Run("reaction event updates the message", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 0, 3, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))

		ev := models.MessageUpdatedEvent{
			MessageID: "m-2",
			Reactions: []models.Reaction{{User: "u9", Type: models.ReactionLove}},
		}
		raw, err := json.Marshal(ev)
		require.NoError(t, err)

		v.handleMessageUpdated(raw)
		m, ok := v.rec.Lookup("m-2")
		require.True(t, ok)
		require.Len(t, m.Reactions, 1)
		assert.Equal(t, models.ReactionLove, m.Reactions[0].Type)
	})

	t.Run("events after close are ignored", func(t *testing.T) {
		api := &fakeChatAPI{page: page("m", 0, 3, time.Minute)}
		v := newTestView(api, &fakeMediaAPI{})
		require.NoError(t, v.hydrate(context.Background()))

		v.mu.Lock()
		v.open = false
		v.mu.Unlock()

		ev := models.NewMessageEvent{ChatID: "chat-1", Message: msg("late", time.Hour)}
		raw, err := json.Marshal(ev)
		require.NoError(t, err)

		v.handleNewMessage(raw)
		assert.Equal(t, 3, v.rec.Len())
	})
}

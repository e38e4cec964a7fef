package chatview

import (
	"context"
	"fmt"
	"sync"

	"github.com/carousell/ct-go/pkg/logger"
	"github.com/comrade-chat/comrade-client/internal/config"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/chatapi"
	"github.com/comrade-chat/comrade-client/internal/repo/mediaapi"
	"github.com/comrade-chat/comrade-client/internal/transport"
	"github.com/comrade-chat/comrade-client/pkg/util"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

// ConnSource hands out the session-scoped event channel and identity.
type ConnSource interface {
	Connection(ctx context.Context) (*transport.Conn, error)
	CurrentUser() models.User
}

// ViewManager keeps at most one open View per chat id. Views share the
// session connection but own their state independently; nothing mutable is
// shared across chats.
type ViewManager struct {
	pageSize int
	chats    chatapi.Client
	media    mediaapi.Client
	sess     ConnSource
	log      *logger.Logger
	validate *validator.Validate
	metrics  *prometheus.HistogramVec

	mu    sync.Mutex
	views map[string]*View
}

func NewViewManager(
	conf *config.Config,
	chats chatapi.Client,
	media mediaapi.Client,
	sess ConnSource,
) (*ViewManager, error) {
	metrics, err := util.GetHistogramVec("chat_view_operations", "op", "status")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &ViewManager{
		pageSize: conf.Chat.PageSize,
		chats:    chats,
		media:    media,
		sess:     sess,
		log:      logger.MustNamed("chatview"),
		validate: validator.New(),
		metrics:  metrics,
		views:    make(map[string]*View),
	}, nil
}

// Open creates the view for a chat: join the room, subscribe to live events,
// hydrate the first history page. Opening an already-open chat returns the
// existing view without touching it.
func (m *ViewManager) Open(ctx context.Context, chatID string) (*View, error) {
	m.mu.Lock()
	if v, ok := m.views[chatID]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	conn, err := m.sess.Connection(ctx)
	if err != nil {
		return nil, fmt.Errorf("open chat %s: %w", chatID, err)
	}

	v := &View{
		chatID:   chatID,
		userID:   m.sess.CurrentUser().ID,
		pageSize: m.pageSize,
		rec:      NewReconciler(chatID, m.pageSize),
		comp:     NewComposer(),
		chats:    m.chats,
		media:    m.media,
		conn:     conn,
		log:      m.log,
		validate: m.validate,
		metrics:  m.metrics,
		open:     true,
	}

	m.mu.Lock()
	if existing, ok := m.views[chatID]; ok {
		// lost the race to a concurrent Open
		m.mu.Unlock()
		return existing, nil
	}
	m.views[chatID] = v
	m.mu.Unlock()

	v.subscribe()
	if err := conn.Emit(models.EventJoinChat, chatID); err != nil {
		m.remove(chatID)
		v.Close()
		return nil, fmt.Errorf("join chat %s: %w", chatID, err)
	}
	if err := v.hydrate(ctx); err != nil {
		m.remove(chatID)
		v.Close()
		return nil, err
	}

	m.log.Infow("chat view opened", "chat_id", chatID, "messages", v.rec.Len())
	return v, nil
}

// Get returns the open view for a chat, if any.
func (m *ViewManager) Get(chatID string) (*View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[chatID]
	return v, ok
}

// Close tears down the view for a chat. Closing a chat that is not open is
// a no-op.
func (m *ViewManager) Close(chatID string) {
	if v := m.remove(chatID); v != nil {
		v.Close()
		m.log.Infow("chat view closed", "chat_id", chatID)
	}
}

// CloseAll tears down every open view; used on shutdown.
func (m *ViewManager) CloseAll() {
	m.mu.Lock()
	views := make([]*View, 0, len(m.views))
	for _, v := range m.views {
		views = append(views, v)
	}
	m.views = make(map[string]*View)
	m.mu.Unlock()

	for _, v := range views {
		v.Close()
	}
}

func (m *ViewManager) remove(chatID string) *View {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.views[chatID]
	delete(m.views, chatID)
	return v
}

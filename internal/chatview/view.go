package chatview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/carousell/ct-go/pkg/logger"
	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/comrade-chat/comrade-client/internal/repo/chatapi"
	"github.com/comrade-chat/comrade-client/internal/repo/mediaapi"
	"github.com/comrade-chat/comrade-client/internal/transport"
	"github.com/comrade-chat/comrade-client/pkg/util"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

// View drives one open chat: it owns the chat's Reconciler and Composer,
// keeps the live subscriptions, and talks to the backend for history pages
// and sends. All cross-chat scoping happens here; the transport itself does
// not filter by chat.
type View struct {
	chatID   string
	userID   string
	pageSize int

	rec  *Reconciler
	comp *Composer

	chats    chatapi.Client
	media    mediaapi.Client
	conn     *transport.Conn
	subs     []*transport.Subscription
	log      *logger.Logger
	validate *validator.Validate
	metrics  *prometheus.HistogramVec

	mu   sync.Mutex
	open bool
}

func (v *View) ChatID() string { return v.chatID }

func (v *View) isOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// subscribe registers the live handlers before hydration, so nothing pushed
// during the initial fetch is lost; id dedup absorbs the overlap.
func (v *View) subscribe() {
	v.subs = append(v.subs,
		v.conn.Subscribe(models.EventNewMessage, v.handleNewMessage),
		v.conn.Subscribe(models.EventMessageUpdated, v.handleMessageUpdated),
	)
}

func (v *View) handleNewMessage(data json.RawMessage) {
	var ev models.NewMessageEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		v.log.Warnw("dropping malformed new_message event", "error", err)
		return
	}
	if err := v.validate.Struct(ev); err != nil {
		v.log.Warnw("dropping invalid new_message event", "error", err)
		return
	}
	if !v.isOpen() || ev.ChatID != v.chatID {
		return
	}
	if !v.rec.ApplyLiveMessage(ev) {
		v.log.Debugw("duplicate live message ignored",
			"chat_id", v.chatID, "message_id", ev.Message.ID)
	}
}

func (v *View) handleMessageUpdated(data json.RawMessage) {
	var ev models.MessageUpdatedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		v.log.Warnw("dropping malformed message_updated event", "error", err)
		return
	}
	if err := v.validate.Struct(ev); err != nil {
		v.log.Warnw("dropping invalid message_updated event", "error", err)
		return
	}
	if !v.isOpen() {
		return
	}
	if !v.rec.ApplyReactionUpdate(ev) {
		// reaction for a message outside the loaded window; not loaded, not an error
		v.log.Debugw("reaction update for unloaded message ignored",
			"chat_id", v.chatID, "message_id", ev.MessageID)
	}
}

func (v *View) hydrate(ctx context.Context) error {
	start := time.Now()
	page, err := v.chats.GetMessages(ctx, v.chatID, chatapi.GetMessagesParams{Limit: v.pageSize})
	v.observe("hydrate", start, err)
	if err != nil {
		return fmt.Errorf("hydrate chat %s: %w", v.chatID, err)
	}
	if !v.isOpen() {
		return models.ErrViewClosed
	}
	v.rec.Hydrate(page)
	return nil
}

// LoadOlder fetches and prepends one older history page. Single-flight per
// chat: a trigger while a backfill is running, or once history is exhausted,
// is a no-op. A fetch failure leaves hasMoreHistory unchanged so the caller
// can simply retry.
func (v *View) LoadOlder(ctx context.Context) error {
	if !v.rec.TryBeginBackfill() {
		return nil
	}
	defer v.rec.EndBackfill()

	cursor, ok := v.rec.Cursor()
	if !ok {
		return nil
	}

	start := time.Now()
	page, err := v.chats.GetMessages(ctx, v.chatID, chatapi.GetMessagesParams{
		Before: util.Ptr(cursor),
		Limit:  v.pageSize,
	})
	v.observe("backfill", start, err)
	if err != nil {
		return fmt.Errorf("backfill chat %s: %w", v.chatID, err)
	}
	if !v.isOpen() {
		// response landed after teardown; drop it
		return models.ErrViewClosed
	}
	v.rec.Backfill(page)
	return nil
}

func (v *View) SetDraft(text string) {
	v.comp.SetDraft(text)
}

func (v *View) Draft() string {
	return v.comp.Draft()
}

// AttachReply quotes a loaded message in the next text submission.
func (v *View) AttachReply(messageID string) error {
	m, ok := v.rec.Lookup(messageID)
	if !ok {
		return fmt.Errorf("attach reply to %s: %w", messageID, models.ErrNotFound)
	}
	v.comp.AttachReply(m)
	return nil
}

func (v *View) ClearReply() {
	v.comp.ClearReply()
}

func (v *View) ReplyTarget() *models.ReplySnapshot {
	return v.comp.ReplyTarget()
}

// Send submits the composed draft. Fire and forget: the confirmed message
// only shows up once the backend pushes it back over the live channel, and
// a failed send does not restore the draft.
func (v *View) Send(ctx context.Context) error {
	payload, err := v.comp.Submit()
	if err != nil {
		return err
	}

	start := time.Now()
	err = v.chats.SendMessage(ctx, v.chatID, payload)
	v.observe("send", start, err)
	if err != nil {
		return fmt.Errorf("send to chat %s: %w", v.chatID, err)
	}
	return nil
}

// SendMedia uploads the file out of band, then sends it as its own media
// message. The text draft is untouched.
func (v *View) SendMedia(ctx context.Context, filename string, body io.Reader) error {
	asset, err := v.media.Upload(ctx, filename, body)
	if err != nil {
		return fmt.Errorf("send media to chat %s: %w", v.chatID, err)
	}

	v.comp.AttachMedia(*asset)
	payload, err := v.comp.Submit()
	if err != nil {
		return err
	}

	start := time.Now()
	err = v.chats.SendMessage(ctx, v.chatID, payload)
	v.observe("send_media", start, err)
	if err != nil {
		return fmt.Errorf("send media to chat %s: %w", v.chatID, err)
	}
	return nil
}

// ToggleReaction reacts with the given type, or removes the reaction when it
// is already the user's current one. The local reaction state changes only
// when the resulting chat:message_updated event comes back.
func (v *View) ToggleReaction(ctx context.Context, messageID string, t models.ReactionType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown reaction type %q", t)
	}
	m, ok := v.rec.Lookup(messageID)
	if !ok {
		return fmt.Errorf("react to %s: %w", messageID, models.ErrNotFound)
	}

	if mine, ok := m.ReactionOf(v.userID); ok && mine.Type == t {
		if err := v.chats.RemoveReaction(ctx, messageID); err != nil {
			return fmt.Errorf("remove reaction: %w", err)
		}
		return nil
	}
	if err := v.chats.React(ctx, messageID, t); err != nil {
		return fmt.Errorf("add reaction: %w", err)
	}
	return nil
}

// Projected returns the display rows for the current reconciled state.
func (v *View) Projected(now time.Time) []ProjectedMessage {
	return Project(v.rec.Messages(), v.userID, now)
}

func (v *View) HasMoreHistory() bool {
	return v.rec.HasMoreHistory()
}

// Close tears down the live subscriptions and leaves the chat room. Safe to
// call twice. Late fetch responses after Close are dropped via the open
// flag.
func (v *View) Close() {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	v.open = false
	v.mu.Unlock()

	for _, s := range v.subs {
		v.conn.Unsubscribe(s)
	}
	v.subs = nil
	if err := v.conn.Emit(models.EventLeaveChat, v.chatID); err != nil {
		v.log.Warnw("leave_chat signal failed", "chat_id", v.chatID, "error", err)
	}
}

func (v *View) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	v.metrics.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

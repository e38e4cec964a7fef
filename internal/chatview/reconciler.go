package chatview

import (
	"sort"
	"sync"
	"time"

	"github.com/comrade-chat/comrade-client/internal/models"
)

// Reconciler owns the authoritative in-memory message list for one chat. It
// merges the initial history page, older-page backfills and live events into
// a single gap-free, duplicate-free sequence ordered by creation time.
//
// Every merge path is idempotent by message id, so duplicate delivery and
// REST/live interleaving are safe regardless of arrival order.
type Reconciler struct {
	chatID   string
	pageSize int

	mu          sync.Mutex
	messages    []models.Message
	index       map[string]int
	hasMore     bool
	hydrated    bool
	backfilling bool

	// live messages that arrived before the initial page resolved;
	// drained by Hydrate
	pending []models.Message
}

func NewReconciler(chatID string, pageSize int) *Reconciler {
	return &Reconciler{
		chatID:   chatID,
		pageSize: pageSize,
		index:    make(map[string]int),
	}
}

func (r *Reconciler) ChatID() string { return r.chatID }

// Hydrate installs the initial history page, oldest first. Called exactly
// once per view lifetime. Live messages that raced ahead of the fetch are
// merged in afterwards; id dedup makes the overlap harmless.
func (r *Reconciler) Hydrate(page []models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = r.messages[:0]
	r.index = make(map[string]int, len(page))
	for _, m := range page {
		if _, ok := r.index[m.ID]; ok {
			continue
		}
		r.index[m.ID] = len(r.messages)
		r.messages = append(r.messages, m)
	}

	r.hasMore = len(r.messages) > 0 && len(page) >= r.pageSize
	r.hydrated = true

	for _, m := range r.pending {
		r.insertLocked(m)
	}
	r.pending = nil
}

// TryBeginBackfill claims the single-flight backfill slot. It refuses when a
// backfill is already running, before hydration, or once history is
// exhausted. Every successful claim must be released with EndBackfill.
func (r *Reconciler) TryBeginBackfill() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backfilling || !r.hydrated || !r.hasMore {
		return false
	}
	r.backfilling = true
	return true
}

func (r *Reconciler) EndBackfill() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backfilling = false
}

// Backfill prepends an older page, oldest first. An empty page marks history
// as exhausted and changes nothing else. Pages are disjoint by construction
// (bounded by the cursor), but ids already present are skipped anyway.
func (r *Reconciler) Backfill(older []models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(older) == 0 {
		r.hasMore = false
		return
	}

	fresh := make([]models.Message, 0, len(older))
	for _, m := range older {
		if _, ok := r.index[m.ID]; ok {
			continue
		}
		fresh = append(fresh, m)
	}
	if len(fresh) > 0 {
		r.messages = append(fresh, r.messages...)
		r.reindexLocked()
	}
	r.hasMore = len(older) >= r.pageSize
}

// ApplyLiveMessage merges a pushed message. Events for other chats and
// duplicate ids are no-ops. The message is inserted in createdAt order
// rather than blindly appended, so a late-arriving out-of-order event still
// lands in the right place.
func (r *Reconciler) ApplyLiveMessage(ev models.NewMessageEvent) bool {
	if ev.ChatID != r.chatID {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hydrated {
		r.pending = append(r.pending, ev.Message)
		return true
	}
	return r.insertLocked(ev.Message)
}

// ApplyReactionUpdate replaces a message's reaction set wholesale with the
// server's authoritative view. Unknown message ids are dropped silently: the
// message is simply not loaded yet.
func (r *Reconciler) ApplyReactionUpdate(ev models.MessageUpdatedEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[ev.MessageID]
	if !ok {
		return false
	}
	reactions := make([]models.Reaction, len(ev.Reactions))
	copy(reactions, ev.Reactions)
	r.messages[i].Reactions = reactions
	return true
}

// Messages returns a copy of the current sequence, oldest first.
func (r *Reconciler) Messages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Lookup returns the loaded message with the given id.
func (r *Reconciler) Lookup(messageID string) (models.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[messageID]; ok {
		return r.messages[i], true
	}
	return models.Message{}, false
}

func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// HasMoreHistory reports whether an older page may still exist.
func (r *Reconciler) HasMoreHistory() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasMore
}

// Cursor returns the createdAt of the oldest loaded message, the bound for
// the next older-page fetch.
func (r *Reconciler) Cursor() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return time.Time{}, false
	}
	return r.messages[0].CreatedAt, true
}

func (r *Reconciler) insertLocked(m models.Message) bool {
	if _, ok := r.index[m.ID]; ok {
		return false
	}

	// common case: newer than everything loaded, append at the end
	if n := len(r.messages); n == 0 || !m.CreatedAt.Before(r.messages[n-1].CreatedAt) {
		r.index[m.ID] = len(r.messages)
		r.messages = append(r.messages, m)
		return true
	}

	// first position whose createdAt is strictly greater; equal timestamps
	// keep arrival order
	at := sort.Search(len(r.messages), func(i int) bool {
		return r.messages[i].CreatedAt.After(m.CreatedAt)
	})
	r.messages = append(r.messages, models.Message{})
	copy(r.messages[at+1:], r.messages[at:])
	r.messages[at] = m
	r.reindexLocked()
	return true
}

func (r *Reconciler) reindexLocked() {
	for i, m := range r.messages {
		r.index[m.ID] = i
	}
}

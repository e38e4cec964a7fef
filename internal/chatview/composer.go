package chatview

import (
	"strings"
	"sync"

	"github.com/comrade-chat/comrade-client/internal/models"
)

// Composer tracks the pending outgoing state for one chat: the text draft,
// an optional reply target and an optional uploaded attachment. A submission
// produces either a text payload or a media payload, never both.
//
// The reply target is a snapshot taken at attach time; later edits to the
// quoted message do not leak into it. Submit clears state immediately; a
// failed send does not restore the draft.
type Composer struct {
	mu         sync.Mutex
	draft      string
	replyTo    *models.ReplySnapshot
	attachment *models.MediaAsset
}

func NewComposer() *Composer {
	return &Composer{}
}

func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// AttachReply sets the reply target. Independent of the draft text; may be
// set or cleared at any time without touching it.
func (c *Composer) AttachReply(m models.Message) {
	snap := m.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyTo = &snap
}

func (c *Composer) ClearReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyTo = nil
}

func (c *Composer) ReplyTarget() *models.ReplySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replyTo == nil {
		return nil
	}
	snap := *c.replyTo
	return &snap
}

// AttachMedia stages an uploaded asset for the next submission.
func (c *Composer) AttachMedia(asset models.MediaAsset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachment = &asset
}

func (c *Composer) ClearMedia() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachment = nil
}

// Submit produces the outbound payload and transitions back to idle.
//
// A staged attachment takes the submission: media goes out as its own
// message and leaves the text draft untouched. Otherwise the trimmed draft
// is sent with the reply reference, and both are cleared. An empty
// submission returns models.ErrEmptySend.
func (c *Composer) Submit() (models.OutgoingMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attachment != nil {
		payload := models.OutgoingMessage{
			Type:          models.MessageTypeMedia,
			MediaURL:      c.attachment.MediaURL,
			MediaType:     c.attachment.MediaType,
			MediaPublicID: c.attachment.MediaPublicID,
		}
		c.attachment = nil
		return payload, nil
	}

	text := strings.TrimSpace(c.draft)
	if text == "" {
		return models.OutgoingMessage{}, models.ErrEmptySend
	}
	payload := models.OutgoingMessage{
		Type: models.MessageTypeText,
		Text: text,
	}
	if c.replyTo != nil {
		payload.ReplyTo = c.replyTo.ID
	}
	c.draft = ""
	c.replyTo = nil
	return payload, nil
}

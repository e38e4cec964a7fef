package models

import "time"

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeMedia MessageType = "media"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionLaugh ReactionType = "laugh"
)

// ReactionTypes is the fixed display order for reaction summaries.
var ReactionTypes = []ReactionType{ReactionLike, ReactionLove, ReactionLaugh}

func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionLaugh:
		return true
	}
	return false
}

// Reaction is one user's current reaction to a message. The backend keeps at
// most one reaction per user per message; reacting again replaces the old one.
type Reaction struct {
	User string       `json:"user" validate:"required"`
	Type ReactionType `json:"type" validate:"required,oneof=like love laugh"`
}

// ReplySnapshot is a denormalized copy of the quoted message, taken when the
// reply is composed. It is immutable: edits to the original message elsewhere
// never propagate into it.
type ReplySnapshot struct {
	ID        string      `json:"id"`
	Sender    User        `json:"sender"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content,omitempty"`
	MediaType MediaType   `json:"mediaType,omitempty"`
}

// Message is a single chat message as served by the backend.
type Message struct {
	ID            string         `json:"id" validate:"required"`
	ChatID        string         `json:"chatId"`
	Sender        User           `json:"sender"`
	Type          MessageType    `json:"type"`
	Content       string         `json:"content,omitempty"`
	MediaURL      string         `json:"mediaUrl,omitempty"`
	MediaType     MediaType      `json:"mediaType,omitempty"`
	MediaPublicID string         `json:"mediaPublicId,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	ReplyTo       *ReplySnapshot `json:"replyTo,omitempty"`
	Reactions     []Reaction     `json:"reactions,omitempty"`
}

// Snapshot builds the reply reference for quoting this message. Content is
// carried only for text messages; media replies keep just the media type.
func (m Message) Snapshot() ReplySnapshot {
	snap := ReplySnapshot{
		ID:     m.ID,
		Sender: m.Sender,
		Type:   m.Type,
	}
	if m.Type == MessageTypeText {
		snap.Content = m.Content
	} else {
		snap.MediaType = m.MediaType
	}
	return snap
}

// ReactionOf returns the given user's reaction, if any.
func (m Message) ReactionOf(userID string) (Reaction, bool) {
	for _, r := range m.Reactions {
		if r.User == userID {
			return r, true
		}
	}
	return Reaction{}, false
}

// OutgoingMessage is the payload for POST /chats/:id/messages. A submission
// is either text or media, never both; the send endpoint takes the text body
// in "text" while reads return it as "content".
type OutgoingMessage struct {
	Type          MessageType `json:"type" validate:"required,oneof=text media"`
	Text          string      `json:"text,omitempty"`
	ReplyTo       string      `json:"replyTo,omitempty"`
	MediaURL      string      `json:"mediaUrl,omitempty"`
	MediaType     MediaType   `json:"mediaType,omitempty"`
	MediaPublicID string      `json:"mediaPublicId,omitempty"`
}

// MediaAsset is the result of the out-of-band multipart upload, referenced in
// a subsequent media message send.
type MediaAsset struct {
	MediaURL      string    `json:"mediaUrl"`
	MediaType     MediaType `json:"mediaType"`
	MediaPublicID string    `json:"mediaPublicId"`
}

package chatview

import (
	"time"

	"github.com/comrade-chat/comrade-client/internal/models"
)

// ReactionCount is one aggregated reaction type on a message.
type ReactionCount struct {
	Type  models.ReactionType `json:"type"`
	Count int                 `json:"count"`
}

// ProjectedMessage is a display row derived from the reconciled sequence.
type ProjectedMessage struct {
	Message   models.Message  `json:"message"`
	IsMine    bool            `json:"isMine"`
	DateLabel string          `json:"dateLabel,omitempty"`
	Reactions []ReactionCount `json:"reactions,omitempty"`
}

// Project derives display groupings from an ordered message list: ownership
// flags, a date separator on the first message of each local calendar day,
// and reaction counts in fixed like/love/laugh order (nonzero only).
//
// Pure function of its inputs; it keeps no state between calls.
func Project(messages []models.Message, currentUserID string, now time.Time) []ProjectedMessage {
	out := make([]ProjectedMessage, 0, len(messages))
	for i, m := range messages {
		row := ProjectedMessage{
			Message:   m,
			IsMine:    m.Sender.ID == currentUserID,
			Reactions: summarizeReactions(m.Reactions),
		}
		if i == 0 || !sameDay(m.CreatedAt, messages[i-1].CreatedAt) {
			row.DateLabel = dateLabel(m.CreatedAt, now)
		}
		out = append(out, row)
	}
	return out
}

func summarizeReactions(reactions []models.Reaction) []ReactionCount {
	if len(reactions) == 0 {
		return nil
	}
	counts := make(map[models.ReactionType]int, len(reactions))
	for _, r := range reactions {
		counts[r.Type]++
	}

	out := make([]ReactionCount, 0, len(counts))
	for _, t := range models.ReactionTypes {
		if n := counts[t]; n > 0 {
			out = append(out, ReactionCount{Type: t, Count: n})
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

func dateLabel(ts, now time.Time) string {
	switch {
	case sameDay(ts, now):
		return "Today"
	case sameDay(ts, now.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return ts.Local().Format("Monday, Jan 2")
	}
}

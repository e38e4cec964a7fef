package chatview

import (
	"testing"
	"time"

	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localMsg(id, senderID string, ts time.Time) models.Message {
	return models.Message{
		ID:        id,
		ChatID:    "chat-1",
		Sender:    models.User{ID: senderID},
		Type:      models.MessageTypeText,
		Content:   "hi",
		CreatedAt: ts,
	}
}

func TestProjectDateLabels(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 3, 15, 0, 0, 0, time.Local)
	today := time.Date(2025, 6, 3, 9, 0, 0, 0, time.Local)
	yesterday := time.Date(2025, 6, 2, 22, 0, 0, 0, time.Local)
	lastWeek := time.Date(2025, 5, 26, 10, 0, 0, 0, time.Local)

	rows := Project([]models.Message{
		localMsg("a", "u1", lastWeek),
		localMsg("b", "u2", lastWeek.Add(time.Hour)),
		localMsg("c", "u1", yesterday),
		localMsg("d", "u1", today),
		localMsg("e", "u2", today.Add(time.Minute)),
	}, "u1", now)

	require.Len(t, rows, 5)
	assert.Equal(t, "Monday, May 26", rows[0].DateLabel)
	assert.Empty(t, rows[1].DateLabel, "only the first message of a day is labeled")
	assert.Equal(t, "Yesterday", rows[2].DateLabel)
	assert.Equal(t, "Today", rows[3].DateLabel)
	assert.Empty(t, rows[4].DateLabel)
}

func TestProjectIsMine(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 3, 15, 0, 0, 0, time.Local)
	ts := now.Add(-time.Hour)

	rows := Project([]models.Message{
		localMsg("a", "me", ts),
		localMsg("b", "them", ts.Add(time.Minute)),
	}, "me", now)

	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsMine)
	assert.False(t, rows[1].IsMine)
}

func TestProjectReactionSummary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 3, 15, 0, 0, 0, time.Local)
	m := localMsg("a", "u1", now.Add(-time.Hour))
	// laughs arrive first, likes second; summary order is still fixed
	m.Reactions = []models.Reaction{
		{User: "u2", Type: models.ReactionLaugh},
		{User: "u3", Type: models.ReactionLike},
		{User: "u4", Type: models.ReactionLaugh},
	}

	rows := Project([]models.Message{m}, "u1", now)

	require.Len(t, rows, 1)
	assert.Equal(t, []ReactionCount{
		{Type: models.ReactionLike, Count: 1},
		{Type: models.ReactionLaugh, Count: 2},
	}, rows[0].Reactions, "fixed like/love/laugh order, zero counts omitted")
}

func TestProjectNoReactions(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 3, 15, 0, 0, 0, time.Local)
	rows := Project([]models.Message{localMsg("a", "u1", now)}, "u1", now)

	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Reactions)
}

func TestProjectDeterministic(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 3, 15, 0, 0, 0, time.Local)
	msgs := []models.Message{
		localMsg("a", "u1", now.Add(-48*time.Hour)),
		localMsg("b", "u2", now.Add(-2*time.Hour)),
		localMsg("c", "u1", now.Add(-time.Hour)),
	}

	first := Project(msgs, "u1", now)
	second := Project(msgs, "u1", now)
	assert.Equal(t, first, second)
}

func TestProjectEmpty(t *testing.T) {
	t.Parallel()

	rows := Project(nil, "u1", time.Now())
	assert.Empty(t, rows)
}

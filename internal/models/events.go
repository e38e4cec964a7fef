package models

// Live channel event names. These are fixed wire contracts with the backend.
const (
	EventNewMessage     = "chat:new_message"
	EventMessageUpdated = "chat:message_updated"
	EventJoinChat       = "join_chat"
	EventLeaveChat      = "leave_chat"
)

// NewMessageEvent is pushed to every chat participant, including the sender:
// a sent message only becomes visible once it arrives through this event.
type NewMessageEvent struct {
	ChatID  string  `json:"chatId" validate:"required"`
	Message Message `json:"message"`
}

// MessageUpdatedEvent carries the authoritative full reaction set for one
// message. It is a whole-set replacement, not a diff.
type MessageUpdatedEvent struct {
	MessageID string     `json:"messageId" validate:"required"`
	Reactions []Reaction `json:"reactions"`
}

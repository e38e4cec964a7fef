package models

// Chat is a direct conversation between exactly two participants.
type Chat struct {
	ChatID             string `json:"chatId"`
	Participants       []User `json:"participants"`
	LastMessagePreview string `json:"lastMessagePreview,omitempty"`
}

// OtherParticipant returns the participant that is not the given user.
func (c Chat) OtherParticipant(userID string) (User, bool) {
	for _, p := range c.Participants {
		if p.ID != userID {
			return p, true
		}
	}
	return User{}, false
}

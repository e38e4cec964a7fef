package models

// User is a participant identity as embedded in chats and messages.
type User struct {
	ID            string `json:"_id"`
	Name          string `json:"name,omitempty"`
	ComradeHandle string `json:"comradeHandle,omitempty"`
	Email         string `json:"email,omitempty"`
	Bio           string `json:"bio,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
}

// UpdateProfileParams carries the editable profile fields for PATCH /users/me.
type UpdateProfileParams struct {
	Name      string `json:"name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

package models

// Tokens holds the credential pair returned by the auth endpoints. The access
// token authenticates both REST calls and the live channel handshake.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type LoginParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterParams struct {
	Name          string `json:"name" validate:"required"`
	ComradeHandle string `json:"comradeHandle" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
}

type VerifyEmailParams struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

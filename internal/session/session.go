package session

import "replica-auth/internal/auth"

// Session identifies the user of one browser. It is replaced on sign-in and
// cleared on sign-out; SubjectID is the stable identity key.
type Session struct {
	SubjectID   string `json:"sub"`
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"picture,omitempty"`
}

// FromClaims builds a Session from decoded identity claims.
func FromClaims(c auth.Claims) Session {
	return Session{
		SubjectID:   c.Subject,
		DisplayName: c.Name,
		Email:       c.Email,
		AvatarURL:   c.Picture,
	}
}

// Greeting is the name shown to the user.
func (s Session) Greeting() string {
	switch {
	case s.DisplayName != "":
		return s.DisplayName
	case s.Email != "":
		return s.Email
	default:
		return "User"
	}
}

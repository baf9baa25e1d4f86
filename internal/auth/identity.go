package auth

import "errors"

// ErrInvalidToken is returned when an identity token cannot be decoded into
// Claims.
var ErrInvalidToken = errors.New("invalid identity token")

// Claims are the identity facts read from a sign-in provider's ID token.
// The token signature is never checked here, so Claims are advisory until a
// trusted backend corroborates them.
type Claims struct {
	Subject string // provider-scoped unique user identifier (sub)
	Name    string
	Email   string
	Picture string
}

package provider

import "errors"

// ErrMissingConfiguration is returned when a provider lacks a setting it
// needs to build a request.
var ErrMissingConfiguration = errors.New("provider configuration missing")

// LinkProvider defines the contract of a workspace-integration provider
// whose accounts can be linked to a session. Implementations only build the
// outbound authorization request; the code exchange happens on a backend
// that is not part of this service.
type LinkProvider interface {
	// Name returns the provider identifier (e.g. "slack").
	Name() string

	// Validate reports ErrMissingConfiguration when a required setting is
	// absent.
	Validate() error

	// AuthCodeURL returns the authorization URL carrying the given opaque
	// state.
	AuthCodeURL(state string) (string, error)
}

package link

import (
	"context"
	"fmt"
	"strings"
	"time"

	"replica-auth/internal/auth/provider"
	"replica-auth/internal/logger"
	"replica-auth/internal/utils"
)

// ErrMissingConfiguration is returned when the provider cannot build a
// request. Callers must show it to the user.
var ErrMissingConfiguration = provider.ErrMissingConfiguration

// Builder constructs outbound authorization URLs for one browser.
type Builder struct {
	provider provider.LinkProvider
	states   *StateStore
	now      func() time.Time
}

func NewBuilder(p provider.LinkProvider, states *StateStore) *Builder {
	return &Builder{provider: p, states: states, now: time.Now}
}

// BuildAuthorizationURL stores a fresh RequestState and returns the URL the
// browser must be redirected to. Nothing is stored when the provider is not
// fully configured.
func (b *Builder) BuildAuthorizationURL(ctx context.Context, subjectID string) (string, error) {
	if err := b.provider.Validate(); err != nil {
		return "", err
	}
	if strings.TrimSpace(subjectID) == "" {
		return "", fmt.Errorf("link: missing subject id")
	}

	nonce, err := utils.RandomToken(nonceSize)
	if err != nil {
		return "", err
	}

	state, err := encodeState(nonce, subjectID)
	if err != nil {
		return "", err
	}

	if err := b.states.Put(ctx, RequestState{
		Nonce:     nonce,
		SubjectID: subjectID,
		CreatedAt: b.now().UTC(),
	}); err != nil {
		return "", err
	}

	authURL, err := b.provider.AuthCodeURL(state)
	if err != nil {
		return "", err
	}

	logger.Info("link request built", map[string]any{
		"provider": b.provider.Name(),
	})

	return authURL, nil
}

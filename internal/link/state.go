// Package link runs the client half of the workspace account-linking
// handshake: building the outbound authorization request and reconciling
// the parameters the backend writes back onto the dashboard URL.
package link

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"replica-auth/internal/logger"
	"replica-auth/internal/storage"
)

const (
	stateKey  = "link:state"
	nonceSize = 32
)

// RequestState is what the browser remembers about its latest outbound
// authorization request.
type RequestState struct {
	Nonce     string    `json:"nonce"`
	SubjectID string    `json:"sub"`
	CreatedAt time.Time `json:"created_at"`
}

// StateStore keeps the most recent RequestState of one browser. A newer
// request replaces an older one.
type StateStore struct {
	kv  storage.KV
	ttl time.Duration
}

func NewStateStore(kv storage.KV, ttl time.Duration) *StateStore {
	return &StateStore{kv: kv, ttl: ttl}
}

func (s *StateStore) Put(ctx context.Context, st RequestState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("link: marshal state: %w", err)
	}
	if err := s.kv.Set(ctx, stateKey, string(data), s.ttl); err != nil {
		return fmt.Errorf("link: store state: %w", err)
	}
	return nil
}

// Consume returns the stored state and deletes it. It returns nil when no
// usable state exists.
func (s *StateStore) Consume(ctx context.Context) (*RequestState, error) {
	val, err := s.kv.Take(ctx, stateKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("link: consume state: %w", err)
	}

	var st RequestState
	if err := json.Unmarshal([]byte(val), &st); err != nil || st.Nonce == "" {
		logger.Warn("discarding unreadable link state", nil)
		return nil, nil
	}
	return &st, nil
}

// statePayload is the opaque state parameter forwarded through the provider
// and the backend.
type statePayload struct {
	Nonce     string `json:"n"`
	SubjectID string `json:"s"`
}

func encodeState(nonce, subjectID string) (string, error) {
	data, err := json.Marshal(statePayload{Nonce: nonce, SubjectID: subjectID})
	if err != nil {
		return "", fmt.Errorf("link: encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeState(raw string) (statePayload, bool) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return statePayload{}, false
	}
	var p statePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Nonce == "" || p.SubjectID == "" {
		return statePayload{}, false
	}
	return p, true
}

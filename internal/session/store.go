package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"replica-auth/internal/logger"
	"replica-auth/internal/storage"
)

// StorageKey is the fixed key the session record lives under.
const StorageKey = "auth:user"

// Store persists at most one Session per browser keyspace.
type Store struct {
	kv storage.KV
}

// NewStore wraps a browser-scoped KV.
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the persisted session, or nil when none is stored. A value
// that does not parse is deleted and reported as absent.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	val, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil || strings.TrimSpace(sess.SubjectID) == "" {
		logger.Warn("purging unreadable session record", map[string]any{
			"parse_error": err != nil,
		})
		if delErr := s.kv.Delete(ctx, StorageKey); delErr != nil {
			return nil, fmt.Errorf("session: purge corrupt record: %w", delErr)
		}
		return nil, nil
	}

	return &sess, nil
}

func (s *Store) Save(ctx context.Context, sess Session) error {
	if sess.SubjectID == "" {
		return fmt.Errorf("session: missing subject id")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	if err := s.kv.Set(ctx, StorageKey, string(data), 0); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

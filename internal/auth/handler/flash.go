package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"replica-auth/internal/link"
	"replica-auth/internal/logger"
	"replica-auth/internal/storage"
)

const flashKey = "dashboard:flash"

// flash carries a linking outcome across the redirect that strips the
// callback parameters. It is read once.
type flash struct {
	Account *link.LinkedAccount `json:"account,omitempty"`
	Notice  *link.Notification  `json:"notice,omitempty"`
}

func putFlash(ctx context.Context, kv storage.KV, ttl time.Duration, f flash) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("flash: marshal: %w", err)
	}
	return kv.Set(ctx, flashKey, string(data), ttl)
}

func takeFlash(ctx context.Context, kv storage.KV) flash {
	val, err := kv.Take(ctx, flashKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Error("flash read failed", map[string]any{
				"error": err.Error(),
			})
		}
		return flash{}
	}

	var f flash
	if err := json.Unmarshal([]byte(val), &f); err != nil {
		logger.Warn("discarding unreadable flash", nil)
		return flash{}
	}
	return f
}

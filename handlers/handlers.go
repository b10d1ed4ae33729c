package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/cache"
)

// Cache is the read cache and update channel shared by the handlers
type Cache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, update cache.Update) error
}

// Update resources and actions
const (
	ResourceCart    = "cart"
	ResourceNote    = "note"
	ResourceReport  = "report"
	ResourceSession = "session"
)

// invalidate drops cached views and tells the session's clients what changed.
// Failures are logged: the write already succeeded.
func invalidate(ctx context.Context, c Cache, update cache.Update, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("sessionKey", update.SessionKey).Msg("Failed to invalidate cache")
	}

	update.At = time.Now().UTC()
	if err := c.Publish(ctx, update); err != nil {
		log.Warn().Err(err).Str("sessionKey", update.SessionKey).Msg("Failed to publish update")
	}
}

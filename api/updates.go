package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var pingInterval = 15 * time.Second

// streamUpdates pushes the session's change notifications as server-sent
// events until the client goes away. Without a live update channel it
// answers 204 so EventSource clients stop reconnecting and fall back to
// polling.
func (s *Server) streamUpdates(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	if s.updates == nil || !s.updates.Enabled() {
		c.Status(http.StatusNoContent)
		return
	}

	ctx := c.Request.Context()
	updates, err := s.updates.Subscribe(ctx, session.Key())
	if err != nil {
		WriteError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	log.Debug().Str("sessionKey", session.Key()).Msg("Update stream opened")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case update, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("update", update)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})

	log.Debug().Str("sessionKey", session.Key()).Msg("Update stream closed")
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/handlers"
)

// LoginResponse carries the token of a freshly opened session
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Session   domain.Session `json:"session"`
	// PollInterval is set when live updates are unavailable and clients
	// must refresh on their own
	PollInterval string `json:"pollInterval,omitempty"`
}

func (s *Server) login(c *gin.Context) {
	var cmd handlers.LoginCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		WriteError(c, NewValidationError(err.Error()))
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	session, err := s.handlers.Sessions.Login(ctx, cmd)
	if err != nil {
		WriteError(c, err)
		return
	}

	token, expiresAt, err := GenerateToken(*session, s.cfg.Auth)
	if err != nil {
		WriteError(c, err)
		return
	}

	response := LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Session:   *session,
	}
	if s.updates == nil || !s.updates.Enabled() {
		response.PollInterval = s.cfg.Updates.PollInterval.String()
	}

	c.JSON(http.StatusCreated, response)
}

func (s *Server) currentSession(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	current, err := s.handlers.Sessions.Current(ctx, session)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, current)
}

package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/tracing"
	"example.com/backstage/services/bipagem/utils"
)

// LoginCommand opens a work session
type LoginCommand struct {
	Collaborators []string `json:"colaboradores" validate:"required,min=1,max=3,dive,required,collaborator"`
	Date          string   `json:"data" validate:"required,session_date"`
	Shift         string   `json:"turno" validate:"required,shift"`
	Area          string   `json:"area" validate:"required,area"`
	AdminPassword string   `json:"senhaAdmin,omitempty"`
}

// SessionHandler handles login and session lookups
type SessionHandler struct {
	sessions      repository.SessionStore
	adminPassword string
	now           func() time.Time
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions repository.SessionStore, adminPassword string) *SessionHandler {
	return &SessionHandler{
		sessions:      sessions,
		adminPassword: adminPassword,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Login validates the command and records the session. Supplying the
// configured administrator password grants the admin role.
func (h *SessionHandler) Login(ctx context.Context, cmd LoginCommand) (*domain.Session, error) {
	defer tracing.StartSegment(ctx, "SessionHandler.Login").End()

	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	role := domain.RoleOperator
	if cmd.AdminPassword != "" {
		if h.adminPassword == "" || subtle.ConstantTimeCompare([]byte(cmd.AdminPassword), []byte(h.adminPassword)) != 1 {
			return nil, &domain.PermissionDeniedError{Action: "log in as administrator"}
		}
		role = domain.RoleAdmin
	}

	collaborators := make([]string, len(cmd.Collaborators))
	for i, c := range cmd.Collaborators {
		collaborators[i] = strings.TrimSpace(c)
	}

	session := &domain.Session{
		Collaborators: collaborators,
		Date:          cmd.Date,
		Shift:         domain.Shift(cmd.Shift),
		Area:          domain.Area(cmd.Area),
		Role:          role,
		LoginAt:       h.now(),
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if err := h.sessions.SaveSession(ctx, *session); err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionKey", session.Key()).
		Str("role", string(role)).
		Msg("Session opened")

	return session, nil
}

// Current returns the stored session carrying the caller's role
func (h *SessionHandler) Current(ctx context.Context, session domain.Session) (*domain.Session, error) {
	defer tracing.StartSegment(ctx, "SessionHandler.Current").End()

	stored, err := h.sessions.GetSession(ctx, session.Key())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: "session", ID: session.Key()}
		}
		return nil, err
	}
	stored.Role = session.Role
	return stored, nil
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/cache"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/tracing"
)

// NoteHandler handles the receiving notebook
type NoteHandler struct {
	sessions repository.SessionStore
	checker  *domain.Checker
	cache    Cache
	locks    *SessionLocks
	now      func() time.Time
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(sessions repository.SessionStore, checker *domain.Checker, c Cache, locks *SessionLocks) *NoteHandler {
	return &NoteHandler{
		sessions: sessions,
		checker:  checker,
		cache:    c,
		locks:    locks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns the session's notebook
func (h *NoteHandler) List(ctx context.Context, session domain.Session) (*NotebookView, error) {
	defer tracing.StartSegment(ctx, "NoteHandler.List").End()

	if err := checkReceivingArea(session, "list notes"); err != nil {
		return nil, err
	}

	key := cache.NotebookKey(session.Key())
	var view NotebookView
	if err := h.cache.Get(ctx, key, &view); err == nil {
		return &view, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Str("sessionKey", session.Key()).Msg("Failed to read notebook from cache")
	}

	notebook, err := h.sessions.LoadNotebook(ctx, session.Key())
	if err != nil {
		return nil, err
	}

	view = NewNotebookView(notebook)
	if err := h.cache.Set(ctx, key, view); err != nil {
		log.Warn().Err(err).Str("sessionKey", session.Key()).Msg("Failed to cache notebook")
	}
	return &view, nil
}

// Scan parses, checks and records a raw receiving code in the notebook
func (h *NoteHandler) Scan(ctx context.Context, session domain.Session, raw string) (*ScanResult, error) {
	defer tracing.StartSegment(ctx, "NoteHandler.Scan").End()

	var outcome domain.Outcome
	view, err := h.withNotebook(ctx, session, "scan notes", "scan", func(notebook *domain.Notebook) error {
		now := h.now()
		line, err := domain.ParseReceiving(raw, now)
		if err != nil {
			outcome = parseRejection(domain.SchemaReceiving, raw, err, now)
		} else {
			outcome, err = h.checker.Check(ctx, line, notebook)
			if err != nil {
				return fmt.Errorf("failed to check scan: %w", err)
			}
		}
		notebook.Add(outcome.Line)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionKey", session.Key()).
		Str("invoice", outcome.Line.InvoiceNumber).
		Str("outcome", string(outcome.Kind)).
		Msg("Note recorded")

	result := newScanResult(outcome)
	result.Notebook = view
	return result, nil
}

// Remove deletes a note
func (h *NoteHandler) Remove(ctx context.Context, session domain.Session, noteID string) (*NotebookView, error) {
	defer tracing.StartSegment(ctx, "NoteHandler.Remove").End()

	return h.withNotebook(ctx, session, "remove notes", "remove", func(notebook *domain.Notebook) error {
		return notebook.Remove(noteID)
	})
}

// SetDivergence attaches an operator correction to a note
func (h *NoteHandler) SetDivergence(ctx context.Context, session domain.Session, noteID string, divergence domain.Divergence) (*NotebookView, error) {
	defer tracing.StartSegment(ctx, "NoteHandler.SetDivergence").End()

	return h.withNotebook(ctx, session, "annotate notes", "divergence", func(notebook *domain.Notebook) error {
		return notebook.SetDivergence(noteID, divergence)
	})
}

// ClearDivergence removes an operator correction
func (h *NoteHandler) ClearDivergence(ctx context.Context, session domain.Session, noteID string) (*NotebookView, error) {
	defer tracing.StartSegment(ctx, "NoteHandler.ClearDivergence").End()

	return h.withNotebook(ctx, session, "annotate notes", "divergence", func(notebook *domain.Notebook) error {
		return notebook.ClearDivergence(noteID)
	})
}

func (h *NoteHandler) withNotebook(ctx context.Context, session domain.Session, action, updateAction string, fn func(notebook *domain.Notebook) error) (*NotebookView, error) {
	if err := checkReceivingArea(session, action); err != nil {
		return nil, err
	}

	unlock := h.locks.Lock(session.Key())
	defer unlock()

	notebook, err := h.sessions.LoadNotebook(ctx, session.Key())
	if err != nil {
		return nil, err
	}
	if err := fn(notebook); err != nil {
		return nil, err
	}
	if err := h.sessions.SaveNotebook(ctx, notebook); err != nil {
		return nil, err
	}

	invalidate(ctx, h.cache, cache.Update{
		SessionKey: session.Key(),
		Resource:   ResourceNote,
		Action:     updateAction,
	}, cache.NotebookKey(session.Key()))

	view := NewNotebookView(notebook)
	return &view, nil
}

func checkReceivingArea(session domain.Session, action string) error {
	if session.Area != domain.AreaReceiving {
		return &domain.WrongAreaError{Action: action, Area: session.Area}
	}
	return nil
}

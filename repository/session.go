package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/bipagem/database"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/models"
)

// sessionStore implements SessionStore
type sessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a new session store
func NewSessionStore(db *gorm.DB) SessionStore {
	return &sessionStore{db: db}
}

// SaveSession records the session identity, refreshing the login time on re-login
func (s *sessionStore) SaveSession(ctx context.Context, session domain.Session) error {
	collaborators, err := json.Marshal(session.Collaborators)
	if err != nil {
		return fmt.Errorf("failed to marshal collaborators: %w", err)
	}

	row := models.Session{
		SessionKey:    session.Key(),
		Collaborators: collaborators,
		Date:          session.Date,
		Shift:         string(session.Shift),
		Area:          string(session.Area),
		LoginAt:       session.LoginAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"login_at", "updated_at"}),
	}).Create(&row).Error
}

// GetSession gets a session by key. The role is carried by the caller's token, not stored.
func (s *sessionStore) GetSession(ctx context.Context, sessionKey string) (*domain.Session, error) {
	var row models.Session
	if err := s.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&row).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	session := &domain.Session{
		Date:    row.Date,
		Shift:   domain.Shift(row.Shift),
		Area:    domain.Area(row.Area),
		LoginAt: row.LoginAt,
	}
	if err := json.Unmarshal(row.Collaborators, &session.Collaborators); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collaborators: %w", err)
	}
	return session, nil
}

// LoadNotebook loads the working notes of a session, most recent first
func (s *sessionStore) LoadNotebook(ctx context.Context, sessionKey string) (*domain.Notebook, error) {
	var rows []models.SessionNote
	if err := s.db.WithContext(ctx).
		Where("session_key = ?", sessionKey).
		Order("position DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load notebook: %w", err)
	}

	notebook := domain.NewNotebook(sessionKey)
	for _, row := range rows {
		var line domain.ScannedLine
		if err := json.Unmarshal(row.Line, &line); err != nil {
			return nil, fmt.Errorf("failed to unmarshal note %s: %w", row.NoteID, err)
		}
		notebook.Notes = append(notebook.Notes, line)
	}
	return notebook, nil
}

// SaveNotebook replaces the stored notes of a session with the notebook contents
func (s *sessionStore) SaveNotebook(ctx context.Context, notebook *domain.Notebook) error {
	rows, err := toSessionNotes(notebook)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_key = ?", notebook.SessionKey).Delete(&models.SessionNote{}).Error; err != nil {
			return fmt.Errorf("failed to clear notebook: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save notebook: %w", err)
		}
		return nil
	})
}

func toSessionNotes(notebook *domain.Notebook) ([]models.SessionNote, error) {
	rows := make([]models.SessionNote, 0, len(notebook.Notes))
	for i, note := range notebook.Notes {
		line, err := json.Marshal(note)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal note: %w", err)
		}
		rows = append(rows, models.SessionNote{
			NoteID:        note.ID,
			SessionKey:    notebook.SessionKey,
			Position:      len(notebook.Notes) - i,
			InvoiceNumber: note.InvoiceNumber,
			Line:          line,
			CreatedAt:     note.ScannedAt,
		})
	}
	return rows, nil
}

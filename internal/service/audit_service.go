package service

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/sse"
)

// AuditStore persists audit entries.
type AuditStore interface {
	Create(e *models.AuditEntry) error
	GetAllPaged(entity string, adminID int, page, limit int) ([]models.AuditEntry, int, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// Activity describes one admin mutation.
type Activity struct {
	AdminID  int
	Entity   string
	Action   string
	EntityID string

	// Message is shown on success. Failures use the error text instead.
	Message string
}

// AuditService writes the audit trail and emits the matching notification.
type AuditService struct {
	store    AuditStore
	notifier sse.Notifier
}

// NewAuditService creates an AuditService. A nil notifier disables notifications.
func NewAuditService(store AuditStore, notifier sse.Notifier) *AuditService {
	if notifier == nil {
		notifier = sse.NopNotifier{}
	}
	return &AuditService{store: store, notifier: notifier}
}

// Record stores the outcome of an activity. err is the error already
// returned to the caller, if any. Storage failures are logged, never returned.
func (s *AuditService) Record(a Activity, err error) {
	entry := &models.AuditEntry{
		AdminID:  a.AdminID,
		Action:   a.Action,
		Entity:   a.Entity,
		EntityID: a.EntityID,
		Outcome:  models.AuditSuccess,
		Message:  a.Message,
	}
	level := sse.LevelSuccess
	if err != nil {
		entry.Outcome = models.AuditFailed
		entry.Message = err.Error()
		level = sse.LevelError
	}

	if s.store != nil {
		if dbErr := s.store.Create(entry); dbErr != nil {
			log.Error().Err(dbErr).
				Str("entity", a.Entity).
				Str("action", a.Action).
				Msg("Failed to write audit entry")
		}
	}

	s.notifier.Notify(sse.Notification{
		Level:    level,
		Message:  entry.Message,
		Entity:   a.Entity,
		Action:   a.Action,
		EntityID: a.EntityID,
		AdminID:  a.AdminID,
	})
}

// List returns a page of the audit trail, newest first.
func (s *AuditService) List(entity string, adminID, page, limit int) ([]models.AuditEntry, int, error) {
	return s.store.GetAllPaged(entity, adminID, page, limit)
}

// Prune deletes entries older than retention.
func (s *AuditService) Prune(retention time.Duration) (int64, error) {
	return s.store.DeleteOlderThan(time.Now().Add(-retention))
}

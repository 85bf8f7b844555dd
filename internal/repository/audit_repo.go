package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/market_admin/internal/models"
)

// AuditRepository stores the admin audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit entry and fills its id and timestamp.
func (r *AuditRepository) Create(e *models.AuditEntry) error {
	const q = `
		INSERT INTO admin_audit_log (admin_id, action, entity, entity_id, outcome, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.db.QueryRow(q, e.AdminID, e.Action, e.Entity, e.EntityID, e.Outcome, e.Message).
		Scan(&e.ID, &e.CreatedAt)
}

// GetAllPaged returns entries newest first. Empty filters are ignored and
// page begins at 1.
func (r *AuditRepository) GetAllPaged(entity string, adminID int, page, limit int) ([]models.AuditEntry, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE ($1 = '' OR entity = $1)
		AND ($2 = 0 OR admin_id = $2)`

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM admin_audit_log `+baseWhere, entity, adminID); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT id, admin_id, action, entity, entity_id, outcome, message, created_at
		FROM admin_audit_log ` + baseWhere + `
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`
	entries := []models.AuditEntry{}
	if err := r.db.Select(&entries, listQuery, entity, adminID, limit, offset); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// DeleteOlderThan removes entries created before cutoff and returns how many were removed.
func (r *AuditRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM admin_audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package models

import "time"

// AuditOutcome records whether an admin action reached the marketplace successfully.
type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "success"
	AuditFailed  AuditOutcome = "failed"
)

// AuditEntry is one row of the admin audit trail.
type AuditEntry struct {
	ID        int64        `db:"id" json:"id"`
	AdminID   int          `db:"admin_id" json:"adminId"`
	Action    string       `db:"action" json:"action"`
	Entity    string       `db:"entity" json:"entity"`
	EntityID  string       `db:"entity_id" json:"entityId"`
	Outcome   AuditOutcome `db:"outcome" json:"outcome"`
	Message   string       `db:"message" json:"message"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

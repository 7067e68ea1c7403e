package models

import "time"

// Audit actions recorded for account and content changes.
const (
	AuditActionLogin           = "LOGIN"
	AuditActionLogout          = "LOGOUT"
	AuditActionPasswordChange  = "PASSWORD_CHANGE"
	AuditActionCreate          = "CREATE"
	AuditActionUpdate          = "UPDATE"
	AuditActionDelete          = "DELETE"
	AuditActionScheduleReplace = "SCHEDULE_REPLACE"
	AuditActionUpload          = "UPLOAD"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// AuditFilter narrows the audit trail listing.
type AuditFilter struct {
	UserID   string
	Resource string
	Action   string
	Page     int
	PageSize int
}

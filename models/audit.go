package models

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditCreate   AuditAction = "create"
	AuditEdit     AuditAction = "edit"
	AuditApprove  AuditAction = "approve"
	AuditReject   AuditAction = "reject"
	AuditWithdraw AuditAction = "withdraw"
)

// AuditLogEntry is an immutable record of one mutation of a registration.
type AuditLogEntry struct {
	ID             string          `json:"id" db:"id"`
	RegistrationID int             `json:"registration_id" db:"registration_id"`
	Action         AuditAction     `json:"action" db:"action"`
	Description    string          `json:"description" db:"description"`
	ActorID        int             `json:"actor_id" db:"actor_id"`
	ActorRole      UserRole        `json:"actor_role" db:"actor_role"`
	Before         json.RawMessage `json:"before,omitempty" db:"before_data"`
	After          json.RawMessage `json:"after,omitempty" db:"after_data"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

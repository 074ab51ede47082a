package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit action verbs recorded by the workflow and CRUD surfaces.
const (
	ActionCreate         = "CREATE"
	ActionUpdate         = "UPDATE"
	ActionDelete         = "DELETE"
	ActionRequestSubmit  = "REQUEST_SUBMIT"
	ActionRequestApprove = "REQUEST_APPROVE"
	ActionRequestReject  = "REQUEST_REJECT"
	ActionGroupToggle    = "GROUP_TOGGLE"
)

// AuditLog is an append-only record of one mutation. Entries are never
// updated or deleted after creation.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null;index" json:"entity_type"`
	EntityID   uint              `gorm:"not null" json:"entity_id"`
	OldData    datatypes.JSONMap `json:"old_data"`
	NewData    datatypes.JSONMap `json:"new_data"`
	CreatedAt  time.Time         `json:"created_at"`
}

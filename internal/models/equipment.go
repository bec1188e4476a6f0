package models

import (
	"time"

	"github.com/google/uuid"
)

type EquipmentStatus string

const (
	EquipmentStatusActive   EquipmentStatus = "active"
	EquipmentStatusInactive EquipmentStatus = "inactive"
)

// Equipment is a tenant-scoped resource with soft delete. Deleted rows stay
// in the table with is_deleted set and are hidden by the repository's
// standing filters.
type Equipment struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Notes         string          `json:"notes,omitempty"`
	ControlNumber string          `json:"controlNumber"`
	Status        EquipmentStatus `json:"status"`
	TenantID      uuid.UUID       `json:"tenantId"`
	Deleted       bool            `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
}

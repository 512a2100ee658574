package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/enums"
)

// ParticipantEntry tracks one vendor's current commitment to a group order.
// At most one row exists per (group_order_id, vendor_id); re-joining replaces
// the quantity instead of inserting a second row.
type ParticipantEntry struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID   uuid.UUID               `gorm:"column:group_order_id;type:uuid;not null;uniqueIndex:ux_participant_entries_order_vendor"`
	VendorID       uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_participant_entries_order_vendor"`
	Quantity       int                     `gorm:"column:quantity;not null"`
	Status         enums.ParticipantStatus `gorm:"column:status;type:participant_status;not null;default:'active'"`
	JoinedAt       time.Time               `gorm:"column:joined_at;not null"`
	LastModifiedAt time.Time               `gorm:"column:last_modified_at;not null"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

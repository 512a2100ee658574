package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/enums"
)

// LedgerEntry records an immutable join/modify/withdraw action against a
// group order. Rows are append-only; the participant table holds the
// collapsed current view.
type LedgerEntry struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID uuid.UUID          `gorm:"column:group_order_id;type:uuid;not null"`
	VendorID     uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null"`
	Action       enums.LedgerAction `gorm:"column:action;type:ledger_action;not null"`
	Quantity     int                `gorm:"column:quantity;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

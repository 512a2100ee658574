package models

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseOrder is the immutable per-vendor order emitted when a group order
// finalizes. The unique (group_order_id, vendor_id) index doubles as the
// finalization idempotency key.
type PurchaseOrder struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID   uuid.UUID `gorm:"column:group_order_id;type:uuid;not null;uniqueIndex:ux_purchase_orders_order_vendor"`
	VendorID       uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_purchase_orders_order_vendor"`
	SupplierID     uuid.UUID `gorm:"column:supplier_id;type:uuid;not null"`
	ItemID         uuid.UUID `gorm:"column:item_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`
	FinalizedAt    time.Time `gorm:"column:finalized_at;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

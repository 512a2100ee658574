package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupOrderPriceTier captures one row of a group order's volume pricing table.
type GroupOrderPriceTier struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID   uuid.UUID `gorm:"column:group_order_id;type:uuid;not null"`
	ThresholdQty   int       `gorm:"column:threshold_qty;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/enums"
)

// GroupOrder is one shared order vendors join to unlock volume pricing.
// aggregate_quantity and current_unit_price_cents are derived from the
// participant entries and rewritten inside the same transaction as every
// ledger append; they are never trusted from callers.
type GroupOrder struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID                uuid.UUID             `gorm:"column:item_id;type:uuid;not null"`
	SupplierID            uuid.UUID             `gorm:"column:supplier_id;type:uuid;not null"`
	Location              string                `gorm:"column:location;not null"`
	MinQuantity           int                   `gorm:"column:min_quantity;not null"`
	TargetQuantity        *int                  `gorm:"column:target_quantity"`
	Deadline              time.Time             `gorm:"column:deadline;not null"`
	State                 enums.GroupOrderState `gorm:"column:state;type:group_order_state;not null;default:'open'"`
	AggregateQuantity     int                   `gorm:"column:aggregate_quantity;not null;default:0"`
	CurrentUnitPriceCents int                   `gorm:"column:current_unit_price_cents;not null"`
	LatchedUnitPriceCents *int                  `gorm:"column:latched_unit_price_cents"`
	LatchedAt             *time.Time            `gorm:"column:latched_at"`
	FinalizedAt           *time.Time            `gorm:"column:finalized_at"`
	ExpiredAt             *time.Time            `gorm:"column:expired_at"`
	CancelledAt           *time.Time            `gorm:"column:cancelled_at"`
	Tiers                 []GroupOrderPriceTier `gorm:"foreignKey:GroupOrderID;constraint:OnDelete:CASCADE"`
	Participants          []ParticipantEntry    `gorm:"foreignKey:GroupOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

package grouporders

import (
	"time"

	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/enums"
	"github.com/packlane/groupbuy-backend/pkg/pricing"
)

// CreateGroupOrderInput captures the supplier's inputs when opening an order.
type CreateGroupOrderInput struct {
	SupplierID     uuid.UUID
	ItemID         uuid.UUID
	Location       string
	MinQuantity    int
	TargetQuantity *int
	Deadline       time.Time
	Tiers          []pricing.Tier
}

// JoinInput carries a vendor's join or quantity change. Quantity is the
// vendor's full replacement commitment, not a delta.
type JoinInput struct {
	GroupOrderID uuid.UUID
	VendorID     uuid.UUID
	Quantity     int
	ActorRole    string
}

// WithdrawInput removes a vendor's commitment entirely.
type WithdrawInput struct {
	GroupOrderID uuid.UUID
	VendorID     uuid.UUID
	ActorRole    string
}

// CancelInput lets the owning supplier pull an open order.
type CancelInput struct {
	GroupOrderID uuid.UUID
	SupplierID   uuid.UUID
	Reason       string
	ActorRole    string
}

// ParticipantView is one vendor's slice of the order status.
type ParticipantView struct {
	VendorID       uuid.UUID `json:"vendor_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
	JoinedAt       time.Time `json:"joined_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// PriceTierView mirrors one pricing tier row for status responses.
type PriceTierView struct {
	ThresholdQty   int `json:"threshold_qty"`
	UnitPriceCents int `json:"unit_price_cents"`
}

// StatusView is the full snapshot returned by the status operation. Line
// totals are informational while the order is open; the binding numbers are
// fixed at finalization.
type StatusView struct {
	ID                    uuid.UUID             `json:"id"`
	ItemID                uuid.UUID             `json:"item_id"`
	SupplierID            uuid.UUID             `json:"supplier_id"`
	Location              string                `json:"location"`
	State                 enums.GroupOrderState `json:"state"`
	MinQuantity           int                   `json:"min_quantity"`
	TargetQuantity        *int                  `json:"target_quantity,omitempty"`
	Deadline              time.Time             `json:"deadline"`
	AggregateQuantity     int                   `json:"aggregate_quantity"`
	CurrentUnitPriceCents int                   `json:"current_unit_price_cents"`
	LatchedUnitPriceCents *int                  `json:"latched_unit_price_cents,omitempty"`
	Tiers                 []PriceTierView       `json:"tiers"`
	Participants          []ParticipantView     `json:"participants"`
}

// SummaryView is the compact shape returned by the open orders list.
type SummaryView struct {
	ID                    uuid.UUID `json:"id"`
	ItemID                uuid.UUID `json:"item_id"`
	SupplierID            uuid.UUID `json:"supplier_id"`
	Location              string    `json:"location"`
	MinQuantity           int       `json:"min_quantity"`
	TargetQuantity        *int      `json:"target_quantity,omitempty"`
	Deadline              time.Time `json:"deadline"`
	AggregateQuantity     int       `json:"aggregate_quantity"`
	CurrentUnitPriceCents int       `json:"current_unit_price_cents"`
	ParticipantCount      int       `json:"participant_count"`
}

// ListFilters describe the inputs supported by the open orders list.
type ListFilters struct {
	Location   string
	ItemID     *uuid.UUID
	SupplierID *uuid.UUID
}

// ListView wraps the paginated open orders plus the next page cursor.
type ListView struct {
	Orders     []SummaryView `json:"orders"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

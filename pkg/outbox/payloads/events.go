package payloads

import (
	"time"

	"github.com/google/uuid"
)

// GroupOrderCreatedEvent announces a newly opened group order.
type GroupOrderCreatedEvent struct {
	GroupOrderID uuid.UUID `json:"group_order_id"`
	ItemID       uuid.UUID `json:"item_id"`
	SupplierID   uuid.UUID `json:"supplier_id"`
	Location     string    `json:"location"`
	MinQuantity  int       `json:"min_quantity"`
	Deadline     time.Time `json:"deadline"`
}

// PurchaseOrderRef carries the per-vendor split produced by finalization.
type PurchaseOrderRef struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	VendorID        uuid.UUID `json:"vendor_id"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int       `json:"unit_price_cents"`
	TotalCents      int64     `json:"total_cents"`
}

// GroupOrderFinalizedEvent surfaces the locked price and the purchase orders
// cut for every active participant.
type GroupOrderFinalizedEvent struct {
	GroupOrderID          uuid.UUID          `json:"group_order_id"`
	SupplierID            uuid.UUID          `json:"supplier_id"`
	AggregateQuantity     int                `json:"aggregate_quantity"`
	LatchedUnitPriceCents int                `json:"latched_unit_price_cents"`
	FinalizedAt           time.Time          `json:"finalized_at"`
	PurchaseOrders        []PurchaseOrderRef `json:"purchase_orders"`
}

// GroupOrderExpiredEvent is emitted when the deadline passes below min quantity.
type GroupOrderExpiredEvent struct {
	GroupOrderID      uuid.UUID `json:"group_order_id"`
	SupplierID        uuid.UUID `json:"supplier_id"`
	AggregateQuantity int       `json:"aggregate_quantity"`
	MinQuantity       int       `json:"min_quantity"`
	ExpiredAt         time.Time `json:"expired_at"`
}

// GroupOrderCancelledEvent is emitted when the supplier withdraws the order.
type GroupOrderCancelledEvent struct {
	GroupOrderID uuid.UUID `json:"group_order_id"`
	SupplierID   uuid.UUID `json:"supplier_id"`
	CancelledAt  time.Time `json:"cancelled_at"`
	Reason       string    `json:"reason,omitempty"`
}

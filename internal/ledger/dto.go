package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
)

// EntryView is the wire shape of one ledger entry.
type EntryView struct {
	EntryID   uuid.UUID          `json:"entry_id"`
	VendorID  uuid.UUID          `json:"vendor_id"`
	Action    enums.LedgerAction `json:"action"`
	Quantity  int                `json:"quantity"`
	CreatedAt time.Time          `json:"created_at"`
}

// HistoryView bundles an order's ledger entries with the per-vendor
// quantities they replay to. ReplayedQuantities is omitted for
// vendor-scoped views.
type HistoryView struct {
	GroupOrderID       uuid.UUID         `json:"group_order_id"`
	Entries            []EntryView       `json:"entries"`
	ReplayedQuantities map[uuid.UUID]int `json:"replayed_quantities,omitempty"`
}

// NewHistoryView maps ledger rows into their response shape.
func NewHistoryView(groupOrderID uuid.UUID, entries []models.LedgerEntry, replayed map[uuid.UUID]int) *HistoryView {
	views := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, EntryView{
			EntryID:   entry.ID,
			VendorID:  entry.VendorID,
			Action:    entry.Action,
			Quantity:  entry.Quantity,
			CreatedAt: entry.CreatedAt,
		})
	}
	return &HistoryView{
		GroupOrderID:       groupOrderID,
		Entries:            views,
		ReplayedQuantities: replayed,
	}
}

package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
)

// Service defines operations that record and replay ledger entries.
type Service interface {
	RecordAction(ctx context.Context, input RecordActionInput) (*models.LedgerEntry, error)
	History(ctx context.Context, groupOrderID uuid.UUID) ([]models.LedgerEntry, error)
	VendorHistory(ctx context.Context, groupOrderID, vendorID uuid.UUID) ([]models.LedgerEntry, error)
	ReplayQuantities(ctx context.Context, groupOrderID uuid.UUID) (map[uuid.UUID]int, error)
}

type service struct {
	repo Repository
}

// RecordActionInput captures the immutable data a ledger entry requires.
// Withdraw entries carry quantity zero; join and modify carry the vendor's
// full replacement quantity, not a delta.
type RecordActionInput struct {
	GroupOrderID uuid.UUID          `json:"group_order_id"`
	VendorID     uuid.UUID          `json:"vendor_id"`
	Action       enums.LedgerAction `json:"action"`
	Quantity     int                `json:"quantity"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordAction(ctx context.Context, input RecordActionInput) (*models.LedgerEntry, error) {
	if input.GroupOrderID == uuid.Nil {
		return nil, fmt.Errorf("group order id is required")
	}
	if input.VendorID == uuid.Nil {
		return nil, fmt.Errorf("vendor id is required")
	}
	if !input.Action.IsValid() {
		return nil, fmt.Errorf("invalid ledger action %q", input.Action)
	}
	if input.Quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative")
	}
	if input.Action == enums.LedgerActionWithdraw && input.Quantity != 0 {
		return nil, fmt.Errorf("withdraw entries must carry quantity zero")
	}
	if input.Action != enums.LedgerActionWithdraw && input.Quantity == 0 {
		return nil, fmt.Errorf("%s entries require a positive quantity", input.Action)
	}

	entry := &models.LedgerEntry{
		GroupOrderID: input.GroupOrderID,
		VendorID:     input.VendorID,
		Action:       input.Action,
		Quantity:     input.Quantity,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, groupOrderID uuid.UUID) ([]models.LedgerEntry, error) {
	if groupOrderID == uuid.Nil {
		return nil, fmt.Errorf("group order id is required")
	}
	return s.repo.ListByGroupOrder(ctx, groupOrderID)
}

// VendorHistory returns one vendor's slice of the order's ledger.
func (s *service) VendorHistory(ctx context.Context, groupOrderID, vendorID uuid.UUID) ([]models.LedgerEntry, error) {
	if groupOrderID == uuid.Nil {
		return nil, fmt.Errorf("group order id is required")
	}
	if vendorID == uuid.Nil {
		return nil, fmt.Errorf("vendor id is required")
	}
	return s.repo.ListByVendor(ctx, groupOrderID, vendorID)
}

// ReplayQuantities folds the ledger into each vendor's effective quantity.
// The result matches the participant table whenever both were written in the
// same transaction, which makes it a cheap consistency probe.
func (s *service) ReplayQuantities(ctx context.Context, groupOrderID uuid.UUID) (map[uuid.UUID]int, error) {
	entries, err := s.History(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}
	quantities := make(map[uuid.UUID]int)
	for _, entry := range entries {
		switch entry.Action {
		case enums.LedgerActionJoin, enums.LedgerActionModify:
			quantities[entry.VendorID] = entry.Quantity
		case enums.LedgerActionWithdraw:
			delete(quantities, entry.VendorID)
		}
	}
	return quantities, nil
}

package finalizer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/groupbuy-backend/internal/grouporders"
	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/packlane/groupbuy-backend/pkg/errors"
	"github.com/packlane/groupbuy-backend/pkg/outbox"
	"github.com/packlane/groupbuy-backend/pkg/outbox/payloads"
	"github.com/packlane/groupbuy-backend/pkg/pricing"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type mutationLocker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	GroupOrderLockKey(groupOrderID string) string
}

// Service converts a finalizing group order into immutable purchase orders.
type Service interface {
	Finalize(ctx context.Context, groupOrderID uuid.UUID) error
}

type service struct {
	repo    Repository
	orders  grouporders.Repository
	tx      txRunner
	outbox  outboxEmitter
	locker  mutationLocker
	lockTTL time.Duration
	nowFn   func() time.Time
}

// NewService wires the finalizer with its required dependencies.
func NewService(repo Repository, orders grouporders.Repository, tx txRunner, emitter outboxEmitter, locker mutationLocker, lockTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("group orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if locker == nil {
		return nil, fmt.Errorf("mutation locker required")
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &service{
		repo:    repo,
		orders:  orders,
		tx:      tx,
		outbox:  emitter,
		locker:  locker,
		lockTTL: lockTTL,
		nowFn:   time.Now,
	}, nil
}

// Finalize cuts one purchase order per active participant at the latched
// price, then marks the group order finalized. Safe to re-run after a crash:
// already-written purchase orders are kept, missing ones are filled in, and
// the finalized event is emitted at most once.
func (s *service) Finalize(ctx context.Context, groupOrderID uuid.UUID) error {
	if groupOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}

	key := s.locker.GroupOrderLockKey(groupOrderID.String())
	ok, err := s.locker.SetNX(ctx, key, uuid.NewString(), s.lockTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRetryLater, "order is busy, retry shortly")
	}
	defer func() {
		_ = s.locker.Del(context.WithoutCancel(ctx), key)
	}()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		repo := s.repo.WithTx(tx)

		order, err := ordersRepo.FindWithParticipants(ctx, groupOrderID)
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		if order.State == enums.GroupOrderStateFinalized {
			return nil
		}
		if order.State != enums.GroupOrderStateFinalizing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not ready to finalize")
		}
		if order.LatchedUnitPriceCents == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "finalizing order has no latched price")
		}

		now := s.nowFn().UTC()
		unitPrice := *order.LatchedUnitPriceCents
		refs := make([]payloads.PurchaseOrderRef, 0, len(order.Participants))

		for _, entry := range order.Participants {
			if entry.Status != enums.ParticipantStatusActive || entry.Quantity <= 0 {
				continue
			}
			po := &models.PurchaseOrder{
				GroupOrderID:   order.ID,
				VendorID:       entry.VendorID,
				SupplierID:     order.SupplierID,
				ItemID:         order.ItemID,
				Quantity:       entry.Quantity,
				UnitPriceCents: unitPrice,
				TotalCents:     pricing.LineTotalCents(entry.Quantity, unitPrice),
				FinalizedAt:    now,
			}
			// Check before inserting: a failed INSERT aborts the whole
			// postgres transaction, so recovering from a unique violation
			// mid-transaction is not an option when resuming a partial run.
			existing, err := repo.FindByGroupOrderAndVendor(ctx, order.ID, entry.VendorID)
			switch {
			case err == nil:
				po = existing
			case err == gorm.ErrRecordNotFound:
				if err := repo.Create(ctx, po); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
				}
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing purchase order")
			}
			refs = append(refs, payloads.PurchaseOrderRef{
				PurchaseOrderID: po.ID,
				VendorID:        po.VendorID,
				Quantity:        po.Quantity,
				UnitPriceCents:  po.UnitPriceCents,
				TotalCents:      po.TotalCents,
			})
		}

		if err := ordersRepo.Update(ctx, order.ID, map[string]any{
			"state":        enums.GroupOrderStateFinalized,
			"finalized_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark group order finalized")
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGroupOrderFinalized,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.GroupOrderFinalizedEvent{
				GroupOrderID:          order.ID,
				SupplierID:            order.SupplierID,
				AggregateQuantity:     order.AggregateQuantity,
				LatchedUnitPriceCents: unitPrice,
				FinalizedAt:           now,
				PurchaseOrders:        refs,
			},
		})
	})
}

package grouporders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/groupbuy-backend/internal/ledger"
	"github.com/packlane/groupbuy-backend/pkg/config"
	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/packlane/groupbuy-backend/pkg/errors"
	"github.com/packlane/groupbuy-backend/pkg/outbox"
	"github.com/packlane/groupbuy-backend/pkg/outbox/payloads"
	"github.com/packlane/groupbuy-backend/pkg/pagination"
	"github.com/packlane/groupbuy-backend/pkg/pricing"
)

// MaxQuantityPerVendor caps a single vendor's commitment to one order.
const MaxQuantityPerVendor = 100000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// mutationLocker serializes writers on a single group order. One SetNX
// attempt per mutation; losers get told to retry rather than queue.
type mutationLocker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	GroupOrderLockKey(groupOrderID string) string
}

// Service defines the group order aggregation operations.
type Service interface {
	Create(ctx context.Context, input CreateGroupOrderInput) (*models.GroupOrder, error)
	Join(ctx context.Context, input JoinInput) (*StatusView, error)
	Withdraw(ctx context.Context, input WithdrawInput) (*StatusView, error)
	Status(ctx context.Context, groupOrderID uuid.UUID) (*StatusView, error)
	ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) (*ListView, error)
	Cancel(ctx context.Context, input CancelInput) error
	Expire(ctx context.Context, groupOrderID uuid.UUID) error
	BeginFinalization(ctx context.Context, groupOrderID uuid.UUID) error
}

type service struct {
	repo   Repository
	ledger ledger.Repository
	tx     txRunner
	outbox outboxEmitter
	locker mutationLocker
	cfg    config.GroupBuyConfig
	nowFn  func() time.Time
}

// NewService builds the aggregation service with its required dependencies.
func NewService(repo Repository, ledgerRepo ledger.Repository, tx txRunner, emitter outboxEmitter, locker mutationLocker, cfg config.GroupBuyConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("group orders repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
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
	return &service{
		repo:   repo,
		ledger: ledgerRepo,
		tx:     tx,
		outbox: emitter,
		locker: locker,
		cfg:    cfg,
		nowFn:  time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateGroupOrderInput) (*models.GroupOrder, error) {
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "supplier identity missing")
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if input.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location required")
	}
	if input.MinQuantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min quantity must be positive")
	}
	if input.TargetQuantity != nil && *input.TargetQuantity < input.MinQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target quantity cannot be below min quantity")
	}
	now := s.nowFn()
	if !input.Deadline.After(now.Add(s.cfg.MinDeadlineLead)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deadline too soon")
	}
	if len(input.Tiers) > s.cfg.MaxTierCount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many price tiers")
	}
	table, err := pricing.NewTable(input.Tiers)
	if err != nil {
		return nil, err
	}

	tierRows := make([]models.GroupOrderPriceTier, 0, len(input.Tiers))
	for _, tier := range table.Tiers() {
		tierRows = append(tierRows, models.GroupOrderPriceTier{
			ThresholdQty:   tier.ThresholdQty,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}

	order := &models.GroupOrder{
		ItemID:                input.ItemID,
		SupplierID:            input.SupplierID,
		Location:              input.Location,
		MinQuantity:           input.MinQuantity,
		TargetQuantity:        input.TargetQuantity,
		Deadline:              input.Deadline.UTC(),
		State:                 enums.GroupOrderStateOpen,
		AggregateQuantity:     0,
		CurrentUnitPriceCents: table.PriceFor(0),
		Tiers:                 tierRows,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create group order")
		}
		order = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGroupOrderCreated,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.GroupOrderCreatedEvent{
				GroupOrderID: order.ID,
				ItemID:       order.ItemID,
				SupplierID:   order.SupplierID,
				Location:     order.Location,
				MinQuantity:  order.MinQuantity,
				Deadline:     order.Deadline,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Join(ctx context.Context, input JoinInput) (*StatusView, error) {
	if input.GroupOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	if input.Quantity <= 0 || input.Quantity > MaxQuantityPerVendor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
	}

	release, err := s.acquireLock(ctx, input.GroupOrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var view *StatusView
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOpenOrder(ctx, repo, input.GroupOrderID)
		if err != nil {
			return err
		}

		now := s.nowFn().UTC()
		entry, err := repo.FindParticipant(ctx, order.ID, input.VendorID)
		switch {
		case err == gorm.ErrRecordNotFound:
			entry = &models.ParticipantEntry{
				ID:             uuid.New(),
				GroupOrderID:   order.ID,
				VendorID:       input.VendorID,
				Quantity:       input.Quantity,
				Status:         enums.ParticipantStatusActive,
				JoinedAt:       now,
				LastModifiedAt: now,
			}
			if err := repo.CreateParticipant(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create participant")
			}
			if err := s.appendLedger(ctx, tx, order.ID, input.VendorID, enums.LedgerActionJoin, input.Quantity); err != nil {
				return err
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant")
		default:
			action := enums.LedgerActionModify
			updates := map[string]any{
				"quantity":         input.Quantity,
				"status":           enums.ParticipantStatusActive,
				"last_modified_at": now,
			}
			if entry.Status == enums.ParticipantStatusWithdrawn {
				// re-joining after a withdraw starts a fresh membership
				action = enums.LedgerActionJoin
				updates["joined_at"] = now
			}
			if err := repo.UpdateParticipant(ctx, entry.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update participant")
			}
			if err := s.appendLedger(ctx, tx, order.ID, input.VendorID, action, input.Quantity); err != nil {
				return err
			}
		}

		updated, err := s.recomputeAggregates(ctx, repo, order)
		if err != nil {
			return err
		}
		if err := s.maybeLatchTarget(ctx, tx, repo, updated); err != nil {
			return err
		}
		view = s.buildStatusView(updated)
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDeadlinePassed {
			if berr := s.applyDeadlineBackstop(ctx, input.GroupOrderID); berr != nil {
				return nil, berr
			}
		}
		return nil, err
	}
	return view, nil
}

func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (*StatusView, error) {
	if input.GroupOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}

	release, err := s.acquireLock(ctx, input.GroupOrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var view *StatusView
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOpenOrder(ctx, repo, input.GroupOrderID)
		if err != nil {
			return err
		}

		entry, err := repo.FindParticipant(ctx, order.ID, input.VendorID)
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor has no entry in this order")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant")
		}
		if entry.Status == enums.ParticipantStatusWithdrawn {
			// idempotent: already withdrawn
			view = s.buildStatusView(order)
			return nil
		}

		now := s.nowFn().UTC()
		updates := map[string]any{
			"quantity":         0,
			"status":           enums.ParticipantStatusWithdrawn,
			"last_modified_at": now,
		}
		if err := repo.UpdateParticipant(ctx, entry.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "withdraw participant")
		}
		if err := s.appendLedger(ctx, tx, order.ID, input.VendorID, enums.LedgerActionWithdraw, 0); err != nil {
			return err
		}

		updated, err := s.recomputeAggregates(ctx, repo, order)
		if err != nil {
			return err
		}
		view = s.buildStatusView(updated)
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDeadlinePassed {
			if berr := s.applyDeadlineBackstop(ctx, input.GroupOrderID); berr != nil {
				return nil, berr
			}
		}
		return nil, err
	}
	return view, nil
}

func (s *service) Status(ctx context.Context, groupOrderID uuid.UUID) (*StatusView, error) {
	if groupOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}
	order, err := s.repo.FindWithParticipants(ctx, groupOrderID)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
	}

	// Reads never serve a stale open order: a lapsed deadline gets the same
	// transition the sweep would apply. Lock contention or a concurrent
	// transition just means someone else is applying it.
	if order.State == enums.GroupOrderStateOpen && !order.Deadline.After(s.nowFn().UTC()) {
		if order.AggregateQuantity >= order.MinQuantity {
			err = s.BeginFinalization(ctx, groupOrderID)
		} else {
			err = s.Expire(ctx, groupOrderID)
		}
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || (typed.Code() != pkgerrors.CodeRetryLater && typed.Code() != pkgerrors.CodeStateConflict) {
				return nil, err
			}
		}
		order, err = s.repo.FindWithParticipants(ctx, groupOrderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
	}

	return s.buildStatusView(order), nil
}

func (s *service) ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) (*ListView, error) {
	list, err := s.repo.ListOpen(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open group orders")
	}
	return list, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.GroupOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}
	admin := input.ActorRole == string(enums.ActorRoleAdmin)
	if !admin && input.SupplierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "supplier identity missing")
	}

	release, err := s.acquireLock(ctx, input.GroupOrderID)
	if err != nil {
		return err
	}
	defer release()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.GroupOrderID)
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		if !admin && order.SupplierID != input.SupplierID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to supplier")
		}
		if order.State == enums.GroupOrderStateCancelled {
			return nil
		}
		if order.State != enums.GroupOrderStateOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only open orders can be cancelled")
		}

		now := s.nowFn().UTC()
		if err := repo.Update(ctx, order.ID, map[string]any{
			"state":        enums.GroupOrderStateCancelled,
			"cancelled_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel group order")
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGroupOrderCancelled,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.GroupOrderCancelledEvent{
				GroupOrderID: order.ID,
				SupplierID:   order.SupplierID,
				CancelledAt:  now,
				Reason:       input.Reason,
			},
		})
	})
}

// Expire moves a past-deadline order below min quantity into the expired
// state. Safe to call repeatedly; non-open orders are left alone.
func (s *service) Expire(ctx context.Context, groupOrderID uuid.UUID) error {
	if groupOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}

	release, err := s.acquireLock(ctx, groupOrderID)
	if err != nil {
		return err
	}
	defer release()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, groupOrderID)
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		if order.State != enums.GroupOrderStateOpen {
			return nil
		}
		now := s.nowFn().UTC()
		if order.Deadline.After(now) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deadline has not passed")
		}
		if order.AggregateQuantity >= order.MinQuantity {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order met min quantity; finalize instead")
		}
		return s.applyExpiry(ctx, tx, repo, order, now)
	})
}

// BeginFinalization latches the unit price and moves an open order into
// finalizing. The caller is expected to run the finalizer afterwards.
func (s *service) BeginFinalization(ctx context.Context, groupOrderID uuid.UUID) error {
	if groupOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group order id required")
	}

	release, err := s.acquireLock(ctx, groupOrderID)
	if err != nil {
		return err
	}
	defer release()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, groupOrderID)
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		if order.State == enums.GroupOrderStateFinalizing || order.State == enums.GroupOrderStateFinalized {
			return nil
		}
		if order.State != enums.GroupOrderStateOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is closed")
		}
		now := s.nowFn().UTC()
		targetHit := order.TargetQuantity != nil && order.AggregateQuantity >= *order.TargetQuantity
		if order.Deadline.After(now) && !targetHit {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deadline has not passed")
		}
		if order.AggregateQuantity < order.MinQuantity {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is below min quantity")
		}
		return s.latch(ctx, repo, order, now)
	})
}

func (s *service) acquireLock(ctx context.Context, groupOrderID uuid.UUID) (func(), error) {
	key := s.locker.GroupOrderLockKey(groupOrderID.String())
	token := uuid.NewString()
	ok, err := s.locker.SetNX(ctx, key, token, s.cfg.MutationLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeRetryLater, "order is busy, retry shortly")
	}
	return func() {
		_ = s.locker.Del(context.WithoutCancel(ctx), key)
	}, nil
}

// loadOpenOrder loads the order and enforces the open-state and deadline
// preconditions shared by join and withdraw.
func (s *service) loadOpenOrder(ctx context.Context, repo Repository, groupOrderID uuid.UUID) (*models.GroupOrder, error) {
	order, err := repo.FindByID(ctx, groupOrderID)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
	}
	if order.State != enums.GroupOrderStateOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is closed")
	}
	if !order.Deadline.After(s.nowFn().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeDeadlinePassed, "order deadline has passed")
	}
	return order, nil
}

// applyDeadlineBackstop applies the transition the sweep would make to a
// past-deadline open order, in its own committed transaction. The mutation
// that tripped the deadline check rolls back with its error; this must not
// roll back with it. Callers hold the order lock already.
func (s *service) applyDeadlineBackstop(ctx context.Context, groupOrderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, groupOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group order")
		}
		now := s.nowFn().UTC()
		if order.State != enums.GroupOrderStateOpen || order.Deadline.After(now) {
			return nil
		}
		if order.AggregateQuantity >= order.MinQuantity {
			return s.latch(ctx, repo, order, now)
		}
		return s.applyExpiry(ctx, tx, repo, order, now)
	})
}

func (s *service) latch(ctx context.Context, repo Repository, order *models.GroupOrder, now time.Time) error {
	latched := order.CurrentUnitPriceCents
	if err := repo.Update(ctx, order.ID, map[string]any{
		"state":                    enums.GroupOrderStateFinalizing,
		"latched_unit_price_cents": latched,
		"latched_at":               now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "latch group order")
	}
	order.State = enums.GroupOrderStateFinalizing
	order.LatchedUnitPriceCents = &latched
	order.LatchedAt = &now
	return nil
}

func (s *service) applyExpiry(ctx context.Context, tx *gorm.DB, repo Repository, order *models.GroupOrder, now time.Time) error {
	if err := repo.Update(ctx, order.ID, map[string]any{
		"state":      enums.GroupOrderStateExpired,
		"expired_at": now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire group order")
	}
	order.State = enums.GroupOrderStateExpired
	order.ExpiredAt = &now
	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventGroupOrderExpired,
		AggregateType: enums.AggregateGroupOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.GroupOrderExpiredEvent{
			GroupOrderID:      order.ID,
			SupplierID:        order.SupplierID,
			AggregateQuantity: order.AggregateQuantity,
			MinQuantity:       order.MinQuantity,
			ExpiredAt:         now,
		},
	})
}

func (s *service) appendLedger(ctx context.Context, tx *gorm.DB, groupOrderID, vendorID uuid.UUID, action enums.LedgerAction, quantity int) error {
	entry := &models.LedgerEntry{
		ID:           uuid.New(),
		GroupOrderID: groupOrderID,
		VendorID:     vendorID,
		Action:       action,
		Quantity:     quantity,
	}
	if err := s.ledger.WithTx(tx).Create(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return nil
}

// recomputeAggregates rebuilds aggregate_quantity and the tier price from the
// active participant rows inside the current transaction.
func (s *service) recomputeAggregates(ctx context.Context, repo Repository, order *models.GroupOrder) (*models.GroupOrder, error) {
	total, err := repo.SumActiveQuantity(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active quantity")
	}

	table, err := tableFromRows(order.Tiers)
	if err != nil {
		return nil, err
	}
	price := table.PriceFor(total)

	if err := repo.Update(ctx, order.ID, map[string]any{
		"aggregate_quantity":       total,
		"current_unit_price_cents": price,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update aggregates")
	}

	order.AggregateQuantity = total
	order.CurrentUnitPriceCents = price

	refreshed, err := repo.FindWithParticipants(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload group order")
	}
	return refreshed, nil
}

// maybeLatchTarget begins finalization early when the optional target
// quantity is reached before the deadline.
func (s *service) maybeLatchTarget(ctx context.Context, tx *gorm.DB, repo Repository, order *models.GroupOrder) error {
	if order.State != enums.GroupOrderStateOpen || order.TargetQuantity == nil {
		return nil
	}
	if order.AggregateQuantity < *order.TargetQuantity {
		return nil
	}
	return s.latch(ctx, repo, order, s.nowFn().UTC())
}

func (s *service) buildStatusView(order *models.GroupOrder) *StatusView {
	unitPrice := order.CurrentUnitPriceCents
	if order.LatchedUnitPriceCents != nil {
		unitPrice = *order.LatchedUnitPriceCents
	}

	tiers := make([]PriceTierView, 0, len(order.Tiers))
	for _, tier := range order.Tiers {
		tiers = append(tiers, PriceTierView{
			ThresholdQty:   tier.ThresholdQty,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}

	participants := make([]ParticipantView, 0, len(order.Participants))
	for _, entry := range order.Participants {
		if entry.Status != enums.ParticipantStatusActive {
			continue
		}
		participants = append(participants, ParticipantView{
			VendorID:       entry.VendorID,
			Quantity:       entry.Quantity,
			UnitPriceCents: unitPrice,
			LineTotalCents: pricing.LineTotalCents(entry.Quantity, unitPrice),
			JoinedAt:       entry.JoinedAt,
			LastModifiedAt: entry.LastModifiedAt,
		})
	}

	return &StatusView{
		ID:                    order.ID,
		ItemID:                order.ItemID,
		SupplierID:            order.SupplierID,
		Location:              order.Location,
		State:                 order.State,
		MinQuantity:           order.MinQuantity,
		TargetQuantity:        order.TargetQuantity,
		Deadline:              order.Deadline,
		AggregateQuantity:     order.AggregateQuantity,
		CurrentUnitPriceCents: order.CurrentUnitPriceCents,
		LatchedUnitPriceCents: order.LatchedUnitPriceCents,
		Tiers:                 tiers,
		Participants:          participants,
	}
}

func tableFromRows(rows []models.GroupOrderPriceTier) (pricing.Table, error) {
	tiers := make([]pricing.Tier, 0, len(rows))
	for _, row := range rows {
		tiers = append(tiers, pricing.Tier{
			ThresholdQty:   row.ThresholdQty,
			UnitPriceCents: row.UnitPriceCents,
		})
	}
	table, err := pricing.NewTable(tiers)
	if err != nil {
		return pricing.Table{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored tier table invalid")
	}
	return table, nil
}

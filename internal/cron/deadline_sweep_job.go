package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/packlane/groupbuy-backend/pkg/errors"
	"github.com/packlane/groupbuy-backend/pkg/logger"
	"github.com/packlane/groupbuy-backend/pkg/metrics"
)

const sweepBatchSize = 100

// DeadlineSweepJobParams configure the deadline sweep.
type DeadlineSweepJobParams struct {
	Logger    *logger.Logger
	Orders    dueOrderReader
	Lifecycle orderLifecycle
	Finalizer purchaseOrderCutter
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

type dueOrderReader interface {
	ListDueOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.GroupOrder, error)
	ListStuckFinalizing(ctx context.Context, limit int) ([]models.GroupOrder, error)
}

type orderLifecycle interface {
	Expire(ctx context.Context, groupOrderID uuid.UUID) error
	BeginFinalization(ctx context.Context, groupOrderID uuid.UUID) error
}

type purchaseOrderCutter interface {
	Finalize(ctx context.Context, groupOrderID uuid.UUID) error
}

// NewDeadlineSweepJob builds the job that resolves group orders whose
// deadline has passed: met orders latch their price and finalize into
// purchase orders, unmet orders expire.
func NewDeadlineSweepJob(params DeadlineSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("due order reader required")
	}
	if params.Lifecycle == nil {
		return nil, fmt.Errorf("order lifecycle service required")
	}
	if params.Finalizer == nil {
		return nil, fmt.Errorf("finalizer service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = sweepBatchSize
	}
	return &deadlineSweepJob{
		logg:      params.Logger,
		orders:    params.Orders,
		lifecycle: params.Lifecycle,
		finalizer: params.Finalizer,
		metrics:   params.Metrics,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type deadlineSweepJob struct {
	logg      *logger.Logger
	orders    dueOrderReader
	lifecycle orderLifecycle
	finalizer purchaseOrderCutter
	metrics   *metrics.CronJobMetrics
	batchSize int
	now       func() time.Time
}

func (j *deadlineSweepJob) Name() string { return "deadline-sweep" }

func (j *deadlineSweepJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.sweepDueOrders(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.resumeStuckFinalizations(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *deadlineSweepJob) sweepDueOrders(ctx context.Context) error {
	due, err := j.orders.ListDueOpen(ctx, j.now().UTC(), j.batchSize)
	if err != nil {
		return fmt.Errorf("query due group orders: %w", err)
	}
	var errs []error
	expired, finalized := 0, 0
	for _, order := range due {
		orderCtx := j.logg.WithGroupOrderID(ctx, order.ID.String())
		if order.AggregateQuantity >= order.MinQuantity {
			if err := j.finalizeOrder(orderCtx, order.ID); err != nil {
				errs = append(errs, err)
				continue
			}
			finalized++
			continue
		}
		if err := j.expireOrder(orderCtx, order.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		expired++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"due":       len(due),
		"finalized": finalized,
		"expired":   expired,
	})
	j.logg.Info(logCtx, "deadline sweep loop complete")
	return multierr.Combine(errs...)
}

// resumeStuckFinalizations picks up orders that latched a price but crashed
// before their purchase orders were cut.
func (j *deadlineSweepJob) resumeStuckFinalizations(ctx context.Context) error {
	stuck, err := j.orders.ListStuckFinalizing(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("query stuck finalizing orders: %w", err)
	}
	var errs []error
	for _, order := range stuck {
		orderCtx := j.logg.WithGroupOrderID(ctx, order.ID.String())
		if err := j.finalizer.Finalize(orderCtx, order.ID); err != nil {
			if isBusy(err) {
				j.logg.Info(orderCtx, "order busy, deferring finalization to next sweep")
				continue
			}
			errs = append(errs, fmt.Errorf("resume finalization %s: %w", order.ID, err))
			continue
		}
		j.recordTransition(string(enums.GroupOrderStateFinalized))
	}
	return multierr.Combine(errs...)
}

func (j *deadlineSweepJob) finalizeOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := j.lifecycle.BeginFinalization(ctx, orderID); err != nil {
		if isBusy(err) || isRaced(err) {
			j.logg.Info(ctx, "order moved, deferring latch to next sweep")
			return nil
		}
		return fmt.Errorf("latch group order %s: %w", orderID, err)
	}
	j.recordTransition(string(enums.GroupOrderStateFinalizing))
	if err := j.finalizer.Finalize(ctx, orderID); err != nil {
		if isBusy(err) {
			j.logg.Info(ctx, "order busy, deferring finalization to next sweep")
			return nil
		}
		return fmt.Errorf("finalize group order %s: %w", orderID, err)
	}
	j.recordTransition(string(enums.GroupOrderStateFinalized))
	return nil
}

func (j *deadlineSweepJob) expireOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := j.lifecycle.Expire(ctx, orderID); err != nil {
		if isBusy(err) || isRaced(err) {
			j.logg.Info(ctx, "order moved, deferring expiry to next sweep")
			return nil
		}
		return fmt.Errorf("expire group order %s: %w", orderID, err)
	}
	j.recordTransition(string(enums.GroupOrderStateExpired))
	return nil
}

func (j *deadlineSweepJob) recordTransition(toState string) {
	if j.metrics == nil {
		return
	}
	j.metrics.IncTransition(j.Name(), toState)
}

// isBusy reports whether another instance holds the per-order mutation lock.
func isBusy(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeRetryLater
}

// isRaced reports that a vendor mutation changed the order between the sweep
// query and the transition. The next cycle sees the fresh state.
func isRaced(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeStateConflict
}

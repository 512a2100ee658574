package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/packlane/groupbuy-backend/pkg/errors"
	"github.com/packlane/groupbuy-backend/pkg/logger"
)

func dueOrder(aggregate, min int) models.GroupOrder {
	return models.GroupOrder{
		ID:                uuid.New(),
		SupplierID:        uuid.New(),
		MinQuantity:       min,
		AggregateQuantity: aggregate,
		State:             enums.GroupOrderStateOpen,
		Deadline:          time.Now().UTC().Add(-time.Minute),
	}
}

func TestDeadlineSweepFinalizesMetOrders(t *testing.T) {
	met := dueOrder(55, 40)
	unmet := dueOrder(10, 40)
	reader := &fakeDueReader{due: []models.GroupOrder{met, unmet}}
	lifecycle := &fakeLifecycle{}
	finalizer := &fakeFinalizer{}
	job := newDeadlineSweepJob(t, reader, lifecycle, finalizer)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(lifecycle.latched) != 1 || lifecycle.latched[0] != met.ID {
		t.Fatalf("expected met order latched, got %v", lifecycle.latched)
	}
	if len(finalizer.finalized) != 1 || finalizer.finalized[0] != met.ID {
		t.Fatalf("expected met order finalized, got %v", finalizer.finalized)
	}
	if len(lifecycle.expired) != 1 || lifecycle.expired[0] != unmet.ID {
		t.Fatalf("expected unmet order expired, got %v", lifecycle.expired)
	}
}

func TestDeadlineSweepResumesStuckFinalizations(t *testing.T) {
	stuck := dueOrder(55, 40)
	stuck.State = enums.GroupOrderStateFinalizing
	reader := &fakeDueReader{stuck: []models.GroupOrder{stuck}}
	lifecycle := &fakeLifecycle{}
	finalizer := &fakeFinalizer{}
	job := newDeadlineSweepJob(t, reader, lifecycle, finalizer)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(lifecycle.latched) != 0 {
		t.Fatalf("stuck orders are already latched, got %v", lifecycle.latched)
	}
	if len(finalizer.finalized) != 1 || finalizer.finalized[0] != stuck.ID {
		t.Fatalf("expected stuck order finalized, got %v", finalizer.finalized)
	}
}

func TestDeadlineSweepSkipsBusyOrders(t *testing.T) {
	busy := dueOrder(55, 40)
	reader := &fakeDueReader{due: []models.GroupOrder{busy}}
	lifecycle := &fakeLifecycle{
		latchErr: pkgerrors.New(pkgerrors.CodeRetryLater, "order is busy, retry shortly"),
	}
	finalizer := &fakeFinalizer{}
	job := newDeadlineSweepJob(t, reader, lifecycle, finalizer)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("busy orders should not fail the sweep: %v", err)
	}
	if len(finalizer.finalized) != 0 {
		t.Fatalf("busy order must not be finalized this cycle")
	}
}

func TestDeadlineSweepSkipsRacedOrders(t *testing.T) {
	raced := dueOrder(10, 40)
	reader := &fakeDueReader{due: []models.GroupOrder{raced}}
	lifecycle := &fakeLifecycle{
		expireErr: pkgerrors.New(pkgerrors.CodeStateConflict, "minimum quantity met"),
	}
	job := newDeadlineSweepJob(t, reader, lifecycle, &fakeFinalizer{})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("raced orders should not fail the sweep: %v", err)
	}
}

func TestDeadlineSweepContinuesPastFailures(t *testing.T) {
	broken := dueOrder(10, 40)
	healthy := dueOrder(5, 40)
	reader := &fakeDueReader{due: []models.GroupOrder{broken, healthy}}
	lifecycle := &fakeLifecycle{
		expireErrFor: map[uuid.UUID]error{broken.ID: errors.New("db down")},
	}
	job := newDeadlineSweepJob(t, reader, lifecycle, &fakeFinalizer{})

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected sweep to report the failed order")
	}
	if len(lifecycle.expired) != 1 || lifecycle.expired[0] != healthy.ID {
		t.Fatalf("healthy order should still be swept, got %v", lifecycle.expired)
	}
}

func newDeadlineSweepJob(t *testing.T, reader *fakeDueReader, lifecycle *fakeLifecycle, finalizer *fakeFinalizer) *deadlineSweepJob {
	t.Helper()
	jobIface, err := NewDeadlineSweepJob(DeadlineSweepJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Orders:    reader,
		Lifecycle: lifecycle,
		Finalizer: finalizer,
	})
	if err != nil {
		t.Fatalf("NewDeadlineSweepJob: %v", err)
	}
	job, ok := jobIface.(*deadlineSweepJob)
	if !ok {
		t.Fatalf("expected deadlineSweepJob, got %T", jobIface)
	}
	return job
}

type fakeDueReader struct {
	due   []models.GroupOrder
	stuck []models.GroupOrder
}

func (f *fakeDueReader) ListDueOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.GroupOrder, error) {
	return f.due, nil
}

func (f *fakeDueReader) ListStuckFinalizing(ctx context.Context, limit int) ([]models.GroupOrder, error) {
	return f.stuck, nil
}

type fakeLifecycle struct {
	latched      []uuid.UUID
	expired      []uuid.UUID
	latchErr     error
	expireErr    error
	expireErrFor map[uuid.UUID]error
}

func (f *fakeLifecycle) BeginFinalization(ctx context.Context, groupOrderID uuid.UUID) error {
	if f.latchErr != nil {
		return f.latchErr
	}
	f.latched = append(f.latched, groupOrderID)
	return nil
}

func (f *fakeLifecycle) Expire(ctx context.Context, groupOrderID uuid.UUID) error {
	if f.expireErr != nil {
		return f.expireErr
	}
	if err, ok := f.expireErrFor[groupOrderID]; ok {
		return err
	}
	f.expired = append(f.expired, groupOrderID)
	return nil
}

type fakeFinalizer struct {
	finalized []uuid.UUID
}

func (f *fakeFinalizer) Finalize(ctx context.Context, groupOrderID uuid.UUID) error {
	f.finalized = append(f.finalized, groupOrderID)
	return nil
}

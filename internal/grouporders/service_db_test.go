package grouporders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/packlane/groupbuy-backend/pkg/errors"
)

// gormTxRunner matches the production transaction runner: the callback's
// error rolls the transaction back, success commits it.
type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func newDBTestService(t *testing.T, db *gorm.DB, emitter *stubEmitter, locker *stubLocker) *service {
	t.Helper()
	svc, err := NewService(NewRepository(db), &stubLedgerRepo{}, gormTxRunner{db: db}, emitter, locker, testConfig())
	require.NoError(t, err)
	return svc.(*service)
}

func seedTiers(t *testing.T, db *gorm.DB, orderID uuid.UUID) {
	t.Helper()
	for _, tier := range defaultTiers() {
		require.NoError(t, db.Create(&models.GroupOrderPriceTier{
			ID:             uuid.New(),
			GroupOrderID:   orderID,
			ThresholdQty:   tier.ThresholdQty,
			UnitPriceCents: tier.UnitPriceCents,
		}).Error)
	}
}

func reloadOrder(t *testing.T, db *gorm.DB, orderID uuid.UUID) *models.GroupOrder {
	t.Helper()
	var order models.GroupOrder
	require.NoError(t, db.Where("id = ?", orderID).First(&order).Error)
	return &order
}

func sumActiveRows(t *testing.T, db *gorm.DB, orderID uuid.UUID) int {
	t.Helper()
	var total int
	require.NoError(t, db.Model(&models.ParticipantEntry{}).
		Where("group_order_id = ? AND status = ?", orderID, enums.ParticipantStatusActive).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error)
	return total
}

func TestJoinPastDeadlinePersistsExpiry(t *testing.T) {
	db := setupGroupOrdersTestDB(t)
	emitter := &stubEmitter{}
	svc := newDBTestService(t, db, emitter, &stubLocker{})

	order := seedOrder(t, db, uuid.New(), enums.GroupOrderStateOpen, time.Now().UTC().Add(-time.Minute))
	seedTiers(t, db, order.ID)

	_, err := svc.Join(context.Background(), JoinInput{GroupOrderID: order.ID, VendorID: uuid.New(), Quantity: 5})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDeadlinePassed, typed.Code())

	// the failed join rolls back, the expiry transition must not
	reloaded := reloadOrder(t, db, order.ID)
	assert.Equal(t, enums.GroupOrderStateExpired, reloaded.State)
	assert.NotNil(t, reloaded.ExpiredAt)
	assert.Equal(t, enums.EventGroupOrderExpired, emitter.lastType())
	assert.Equal(t, 0, sumActiveRows(t, db, order.ID))
}

func TestJoinPastDeadlinePersistsLatch(t *testing.T) {
	db := setupGroupOrdersTestDB(t)
	svc := newDBTestService(t, db, &stubEmitter{}, &stubLocker{})

	order := seedOrder(t, db, uuid.New(), enums.GroupOrderStateOpen, time.Now().UTC().Add(-time.Minute))
	seedTiers(t, db, order.ID)
	require.NoError(t, db.Model(&models.GroupOrder{}).Where("id = ?", order.ID).
		Updates(map[string]any{"aggregate_quantity": 55, "current_unit_price_cents": 2500}).Error)

	_, err := svc.Join(context.Background(), JoinInput{GroupOrderID: order.ID, VendorID: uuid.New(), Quantity: 5})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDeadlinePassed, typed.Code())

	reloaded := reloadOrder(t, db, order.ID)
	assert.Equal(t, enums.GroupOrderStateFinalizing, reloaded.State)
	require.NotNil(t, reloaded.LatchedUnitPriceCents)
	assert.Equal(t, 2500, *reloaded.LatchedUnitPriceCents)
	assert.NotNil(t, reloaded.LatchedAt)
}

func TestWithdrawPastDeadlinePersistsExpiry(t *testing.T) {
	db := setupGroupOrdersTestDB(t)
	svc := newDBTestService(t, db, &stubEmitter{}, &stubLocker{})

	order := seedOrder(t, db, uuid.New(), enums.GroupOrderStateOpen, time.Now().UTC().Add(-time.Minute))
	seedTiers(t, db, order.ID)
	vendorID := uuid.New()
	seedParticipant(t, db, order.ID, vendorID, 10, enums.ParticipantStatusActive, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, db.Model(&models.GroupOrder{}).Where("id = ?", order.ID).
		Update("aggregate_quantity", 10).Error)

	_, err := svc.Withdraw(context.Background(), WithdrawInput{GroupOrderID: order.ID, VendorID: vendorID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDeadlinePassed, typed.Code())

	reloaded := reloadOrder(t, db, order.ID)
	assert.Equal(t, enums.GroupOrderStateExpired, reloaded.State)
}

func TestInterleavedMutationsTrackActiveQuantities(t *testing.T) {
	db := setupGroupOrdersTestDB(t)
	svc := newDBTestService(t, db, &stubEmitter{}, &stubLocker{})

	order := seedOrder(t, db, uuid.New(), enums.GroupOrderStateOpen, time.Now().UTC().Add(48*time.Hour))
	seedTiers(t, db, order.ID)
	vendorA := uuid.New()
	vendorB := uuid.New()

	steps := []struct {
		name     string
		run      func() (*StatusView, error)
		quantity int
		price    int
	}{
		{
			name: "vendor A joins",
			run: func() (*StatusView, error) {
				return svc.Join(context.Background(), JoinInput{GroupOrderID: order.ID, VendorID: vendorA, Quantity: 30})
			},
			quantity: 30,
			price:    3000,
		},
		{
			name: "vendor B joins and crosses a tier",
			run: func() (*StatusView, error) {
				return svc.Join(context.Background(), JoinInput{GroupOrderID: order.ID, VendorID: vendorB, Quantity: 25})
			},
			quantity: 55,
			price:    2500,
		},
		{
			name: "vendor A revises downward below the tier",
			run: func() (*StatusView, error) {
				return svc.Join(context.Background(), JoinInput{GroupOrderID: order.ID, VendorID: vendorA, Quantity: 10})
			},
			quantity: 35,
			price:    3000,
		},
		{
			name: "vendor A withdraws",
			run: func() (*StatusView, error) {
				return svc.Withdraw(context.Background(), WithdrawInput{GroupOrderID: order.ID, VendorID: vendorA})
			},
			quantity: 25,
			price:    3000,
		},
		{
			name: "vendor A rejoins",
			run: func() (*StatusView, error) {
				return svc.Join(context.Background(), JoinInput{GroupOrderID: order.ID, VendorID: vendorA, Quantity: 40})
			},
			quantity: 65,
			price:    2500,
		},
	}

	for _, step := range steps {
		view, err := step.run()
		require.NoError(t, err, step.name)
		assert.Equal(t, step.quantity, view.AggregateQuantity, step.name)
		assert.Equal(t, step.quantity, sumActiveRows(t, db, order.ID), step.name)

		reloaded := reloadOrder(t, db, order.ID)
		assert.Equal(t, step.quantity, reloaded.AggregateQuantity, step.name)
		assert.Equal(t, step.price, reloaded.CurrentUnitPriceCents, step.name)
	}
}

func TestContendedJoinPersistsNothing(t *testing.T) {
	db := setupGroupOrdersTestDB(t)
	svc := newDBTestService(t, db, &stubEmitter{}, &stubLocker{contended: true})

	order := seedOrder(t, db, uuid.New(), enums.GroupOrderStateOpen, time.Now().UTC().Add(48*time.Hour))
	seedTiers(t, db, order.ID)

	_, err := svc.Join(context.Background(), JoinInput{GroupOrderID: order.ID, VendorID: uuid.New(), Quantity: 30})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeRetryLater, typed.Code())

	assert.Equal(t, 0, sumActiveRows(t, db, order.ID))
	assert.Equal(t, 0, reloadOrder(t, db, order.ID).AggregateQuantity)
}

package finalizer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
)

func setupPurchaseOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	purchaseOrders := `
CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  group_order_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  finalized_at DATETIME NOT NULL,
  created_at DATETIME,
  UNIQUE (group_order_id, vendor_id)
);`
	require.NoError(t, db.Exec(purchaseOrders).Error)
	return db
}

func seedPurchaseOrder(t *testing.T, db *gorm.DB, groupOrderID, vendorID uuid.UUID, qty int, created time.Time) *models.PurchaseOrder {
	t.Helper()

	order := &models.PurchaseOrder{
		ID:             uuid.New(),
		GroupOrderID:   groupOrderID,
		VendorID:       vendorID,
		SupplierID:     uuid.New(),
		ItemID:         uuid.New(),
		Quantity:       qty,
		UnitPriceCents: 2500,
		TotalCents:     int64(qty) * 2500,
		FinalizedAt:    created,
		CreatedAt:      created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryListByGroupOrder(t *testing.T) {
	db := setupPurchaseOrdersTestDB(t)
	repo := NewRepository(db)

	groupOrderID := uuid.New()
	now := time.Now().UTC()
	first := seedPurchaseOrder(t, db, groupOrderID, uuid.New(), 30, now.Add(-time.Minute))
	second := seedPurchaseOrder(t, db, groupOrderID, uuid.New(), 25, now)
	seedPurchaseOrder(t, db, uuid.New(), uuid.New(), 99, now)

	orders, err := repo.ListByGroupOrder(context.Background(), groupOrderID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)
}

func TestRepositoryFindByGroupOrderAndVendor(t *testing.T) {
	db := setupPurchaseOrdersTestDB(t)
	repo := NewRepository(db)

	groupOrderID := uuid.New()
	vendorID := uuid.New()
	created := seedPurchaseOrder(t, db, groupOrderID, vendorID, 40, time.Now().UTC())

	found, err := repo.FindByGroupOrderAndVendor(context.Background(), groupOrderID, vendorID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, int64(100000), found.TotalCents)

	_, err = repo.FindByGroupOrderAndVendor(context.Background(), groupOrderID, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

package finalizer

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
)

// Repository manages persistence for purchase orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PurchaseOrder) error
	ListByGroupOrder(ctx context.Context, groupOrderID uuid.UUID) ([]models.PurchaseOrder, error)
	FindByGroupOrderAndVendor(ctx context.Context, groupOrderID, vendorID uuid.UUID) (*models.PurchaseOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) ListByGroupOrder(ctx context.Context, groupOrderID uuid.UUID) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("group_order_id = ?", groupOrderID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindByGroupOrderAndVendor(ctx context.Context, groupOrderID, vendorID uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("group_order_id = ? AND vendor_id = ?", groupOrderID, vendorID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

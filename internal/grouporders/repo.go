package grouporders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	"github.com/packlane/groupbuy-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a group orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.GroupOrder) (*models.GroupOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	var order models.GroupOrder
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("threshold_qty ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindWithParticipants(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	var order models.GroupOrder
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("threshold_qty ASC")
		}).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", enums.ParticipantStatusActive).Order("joined_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindParticipant(ctx context.Context, groupOrderID, vendorID uuid.UUID) (*models.ParticipantEntry, error) {
	var entry models.ParticipantEntry
	err := r.db.WithContext(ctx).
		Where("group_order_id = ? AND vendor_id = ?", groupOrderID, vendorID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) CreateParticipant(ctx context.Context, entry *models.ParticipantEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) UpdateParticipant(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ParticipantEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListActiveParticipants(ctx context.Context, groupOrderID uuid.UUID) ([]models.ParticipantEntry, error) {
	var entries []models.ParticipantEntry
	err := r.db.WithContext(ctx).
		Where("group_order_id = ? AND status = ?", groupOrderID, enums.ParticipantStatusActive).
		Order("joined_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumActiveQuantity(ctx context.Context, groupOrderID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ParticipantEntry{}).
		Where("group_order_id = ? AND status = ?", groupOrderID, enums.ParticipantStatusActive).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.GroupOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) (*ListView, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.GroupOrder{}).
		Where("state = ?", enums.GroupOrderStateOpen)

	if filters.Location != "" {
		query = query.Where("location = ?", filters.Location)
	}
	if filters.ItemID != nil {
		query = query.Where("item_id = ?", *filters.ItemID)
	}
	if filters.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filters.SupplierID)
	}
	if cursor != nil {
		query = query.Where("(deadline, id) > (?, ?)", cursor.Deadline, cursor.ID)
	}

	var orders []models.GroupOrder
	err = query.
		Order("deadline ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(orders) > limit {
		last := orders[limit-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{Deadline: last.Deadline, ID: last.ID})
		orders = orders[:limit]
	}

	summaries := make([]SummaryView, 0, len(orders))
	for _, order := range orders {
		count, err := r.countActiveParticipants(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, SummaryView{
			ID:                    order.ID,
			ItemID:                order.ItemID,
			SupplierID:            order.SupplierID,
			Location:              order.Location,
			MinQuantity:           order.MinQuantity,
			TargetQuantity:        order.TargetQuantity,
			Deadline:              order.Deadline,
			AggregateQuantity:     order.AggregateQuantity,
			CurrentUnitPriceCents: order.CurrentUnitPriceCents,
			ParticipantCount:      count,
		})
	}

	return &ListView{Orders: summaries, NextCursor: nextCursor}, nil
}

func (r *repository) countActiveParticipants(ctx context.Context, groupOrderID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ParticipantEntry{}).
		Where("group_order_id = ? AND status = ?", groupOrderID, enums.ParticipantStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repository) ListDueOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.GroupOrder, error) {
	var orders []models.GroupOrder
	err := r.db.WithContext(ctx).
		Where("state = ? AND deadline <= ?", enums.GroupOrderStateOpen, cutoff).
		Order("deadline ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListStuckFinalizing(ctx context.Context, limit int) ([]models.GroupOrder, error) {
	var orders []models.GroupOrder
	err := r.db.WithContext(ctx).
		Where("state = ?", enums.GroupOrderStateFinalizing).
		Order("latched_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

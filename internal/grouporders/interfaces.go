package grouporders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/pagination"
)

// Repository defines persistence operations for group order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.GroupOrder) (*models.GroupOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error)
	FindWithParticipants(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error)
	FindParticipant(ctx context.Context, groupOrderID, vendorID uuid.UUID) (*models.ParticipantEntry, error)
	CreateParticipant(ctx context.Context, entry *models.ParticipantEntry) error
	UpdateParticipant(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListActiveParticipants(ctx context.Context, groupOrderID uuid.UUID) ([]models.ParticipantEntry, error)
	SumActiveQuantity(ctx context.Context, groupOrderID uuid.UUID) (int, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListOpen(ctx context.Context, params pagination.Params, filters ListFilters) (*ListView, error)
	ListDueOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.GroupOrder, error)
	ListStuckFinalizing(ctx context.Context, limit int) ([]models.GroupOrder, error)
}

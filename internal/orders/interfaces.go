package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
)

// ErrStaleVersion is returned by compare-and-set writes when another writer
// updated the order first.
var ErrStaleVersion = errors.New("order version changed")

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error)
	UpdateOrderCAS(ctx context.Context, tenantID, orderID uuid.UUID, version int, updates map[string]any) error
	UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, from, to enums.OrderItemStatus) error
	ListOrders(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	FindDraftsBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

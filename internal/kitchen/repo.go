package kitchen

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
)

// Repository persists kitchen tickets and their item copies.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.KitchenTicket) error
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.KitchenTicket, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a kitchen ticket repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ticket *models.KitchenTicket) error {
	if ticket == nil {
		return fmt.Errorf("ticket is required")
	}
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(ticket).Error; err != nil {
		return err
	}
	if len(ticket.Items) == 0 {
		return nil
	}
	for i := range ticket.Items {
		ticket.Items[i].TicketID = ticket.ID
		if ticket.Items[i].ID == uuid.Nil {
			ticket.Items[i].ID = uuid.New()
		}
	}
	return db.Create(&ticket.Items).Error
}

func (r *repository) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.KitchenTicket, error) {
	var rows []models.KitchenTicket
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ? AND tenant_id = ?", orderID, tenantID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

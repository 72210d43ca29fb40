package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
)

// maxTreeDepth bounds option nesting when assembling a product.
const maxTreeDepth = 8

// Repository defines catalog persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindProduct loads the product with its variants and the full option tree.
// A product owned by another tenant is reported as not found.
func (r *repository) FindProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		First(&product).Error
	if err != nil {
		return nil, err
	}

	var groups []models.OptionGroup
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return &product, nil
	}

	groupIDs := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}
	var options []models.Option
	if err := r.db.WithContext(ctx).
		Where("group_id IN ?", groupIDs).
		Order("position ASC").
		Find(&options).Error; err != nil {
		return nil, err
	}

	product.OptionGroups = assembleTree(groups, options)
	return &product, nil
}

func assembleTree(groups []models.OptionGroup, options []models.Option) []models.OptionGroup {
	optionsByGroup := make(map[uuid.UUID][]models.Option, len(groups))
	for _, opt := range options {
		optionsByGroup[opt.GroupID] = append(optionsByGroup[opt.GroupID], opt)
	}
	childrenByOption := make(map[uuid.UUID][]models.OptionGroup)
	var roots []models.OptionGroup
	for _, g := range groups {
		if g.ParentOptionID == nil {
			roots = append(roots, g)
			continue
		}
		childrenByOption[*g.ParentOptionID] = append(childrenByOption[*g.ParentOptionID], g)
	}

	var build func(group models.OptionGroup, depth int) models.OptionGroup
	build = func(group models.OptionGroup, depth int) models.OptionGroup {
		opts := optionsByGroup[group.ID]
		group.Options = make([]models.Option, 0, len(opts))
		for _, opt := range opts {
			if depth < maxTreeDepth {
				for _, child := range childrenByOption[opt.ID] {
					opt.ChildGroups = append(opt.ChildGroups, build(child, depth+1))
				}
			}
			group.Options = append(group.Options, opt)
		}
		return group
	}

	out := make([]models.OptionGroup, 0, len(roots))
	for _, root := range roots {
		out = append(out, build(root, 0))
	}
	return out
}

// CreateProduct persists a product, its variants and its nested option tree.
// Missing ids are generated so child rows can reference their parents.
func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	db := r.db.WithContext(ctx)
	if err := db.Omit("Variants").Create(product).Error; err != nil {
		return err
	}
	for i := range product.Variants {
		v := &product.Variants[i]
		v.ProductID = product.ID
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		if err := db.Create(v).Error; err != nil {
			return err
		}
	}
	for i := range product.OptionGroups {
		if err := createGroup(db, product.ID, nil, &product.OptionGroups[i], 0); err != nil {
			return err
		}
	}
	return nil
}

func createGroup(db *gorm.DB, productID uuid.UUID, parent *uuid.UUID, group *models.OptionGroup, depth int) error {
	if depth >= maxTreeDepth {
		return fmt.Errorf("option tree deeper than %d levels", maxTreeDepth)
	}
	group.ProductID = productID
	group.ParentOptionID = parent
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if err := db.Omit("Options").Create(group).Error; err != nil {
		return err
	}
	for i := range group.Options {
		opt := &group.Options[i]
		opt.GroupID = group.ID
		if opt.ID == uuid.Nil {
			opt.ID = uuid.New()
		}
		if err := db.Create(opt).Error; err != nil {
			return err
		}
		optID := opt.ID
		for j := range opt.ChildGroups {
			if err := createGroup(db, productID, &optID, &opt.ChildGroups[j], depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

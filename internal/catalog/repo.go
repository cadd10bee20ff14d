package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
)

// Repository manages persistence for catalog SKUs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.SKU, error)
	Upsert(ctx context.Context, sku *models.SKU) error
	List(ctx context.Context, activeOnly bool) ([]models.SKU, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.SKU, error) {
	var sku models.SKU
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&sku).Error; err != nil {
		return nil, err
	}
	return &sku, nil
}

func (r *repository) Upsert(ctx context.Context, sku *models.SKU) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"unit_price_minor", "currency", "active", "updated_at"}),
	}).Create(sku).Error
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]models.SKU, error) {
	var skus []models.SKU
	q := r.db.WithContext(ctx).Order("code ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

package analytics

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
)

// Bucket is one aggregate slice of the ledger.
type Bucket struct {
	Key         string `gorm:"column:key"`
	Count       int64  `gorm:"column:count"`
	AmountMinor int64  `gorm:"column:amount_minor"`
}

// Repository runs aggregate reads over ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Totals(ctx context.Context, from, to time.Time) (count int64, grossMinor int64, err error)
	GroupByStatus(ctx context.Context, from, to time.Time) ([]Bucket, error)
	GroupByStream(ctx context.Context, from, to time.Time) ([]Bucket, error)
	GroupByCurrency(ctx context.Context, from, to time.Time) ([]Bucket, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an analytics repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) windowed(ctx context.Context, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("created_at >= ? AND created_at < ?", from, to)
}

func (r *repository) Totals(ctx context.Context, from, to time.Time) (int64, int64, error) {
	var row struct {
		Count       int64 `gorm:"column:count"`
		AmountMinor int64 `gorm:"column:amount_minor"`
	}
	err := r.windowed(ctx, from, to).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_minor), 0) AS amount_minor").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Count, row.AmountMinor, nil
}

func (r *repository) GroupByStatus(ctx context.Context, from, to time.Time) ([]Bucket, error) {
	var rows []Bucket
	err := r.windowed(ctx, from, to).
		Select("status AS key, COUNT(*) AS count, COALESCE(SUM(amount_minor), 0) AS amount_minor").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) GroupByStream(ctx context.Context, from, to time.Time) ([]Bucket, error) {
	var rows []Bucket
	err := r.windowed(ctx, from, to).
		Select("stream AS key, COUNT(*) AS count, COALESCE(SUM(amount_minor), 0) AS amount_minor").
		Group("stream").
		Order("stream ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) GroupByCurrency(ctx context.Context, from, to time.Time) ([]Bucket, error) {
	var rows []Bucket
	err := r.windowed(ctx, from, to).
		Select("currency AS key, COUNT(*) AS count, COALESCE(SUM(amount_minor), 0) AS amount_minor").
		Group("currency").
		Order("currency ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

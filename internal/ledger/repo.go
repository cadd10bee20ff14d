package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	"github.com/zenartworks/revenue-backend/pkg/pagination"
)

// QueryFilter narrows ledger entry listings. Zero values mean "no filter".
type QueryFilter struct {
	Status enums.LedgerEntryStatus
	Stream string
	From   time.Time
	To     time.Time
	Limit  int
	Cursor *pagination.Cursor
}

// Repository manages persistence for ledger entries. Rows are append-only:
// the only writes after creation are status transitions and payout stamping.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, entries []models.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	Query(ctx context.Context, filter QueryFilter) ([]models.LedgerEntry, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus, clearedAt *time.Time) (int64, error)
	VoidIfUnclaimed(ctx context.Context, id uuid.UUID, from enums.LedgerEntryStatus) (int64, error)
	SumAssigned(ctx context.Context, payoutID uuid.UUID) (int64, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("line_index ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Query pages entries in (created_at, id) order so a restarted reader resumes
// from its cursor without skipping or repeating rows.
func (r *repository) Query(ctx context.Context, filter QueryFilter) ([]models.LedgerEntry, error) {
	q := r.db.WithContext(ctx).Model(&models.LedgerEntry{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Stream != "" {
		q = q.Where("stream = ?", filter.Stream)
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at < ?", filter.To)
	}
	if filter.Cursor != nil {
		q = q.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	limit := pagination.LimitWithBuffer(filter.Limit)
	var entries []models.LedgerEntry
	err := q.Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// UpdateStatusIf transitions an entry's status only when it currently holds
// the expected one. RowsAffected lets the caller distinguish a lost race or
// illegal transition from a missing row.
func (r *repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus, clearedAt *time.Time) (int64, error) {
	updates := map[string]any{"status": to}
	if clearedAt != nil {
		updates["cleared_at"] = *clearedAt
	}
	res := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// VoidIfUnclaimed voids an entry only while no payout holds it. The claim
// check is part of the UPDATE predicate so a concurrent sweep cannot slip in
// between a read and the write.
func (r *repository) VoidIfUnclaimed(ctx context.Context, id uuid.UUID, from enums.LedgerEntryStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("id = ? AND status = ? AND payout_id IS NULL", id, from).
		Update("status", enums.LedgerEntryStatusVoid)
	return res.RowsAffected, res.Error
}

// SumAssigned returns the amount sum and row count of entries stamped with
// the given payout id.
func (r *repository) SumAssigned(ctx context.Context, payoutID uuid.UUID) (int64, int64, error) {
	type aggregate struct {
		Total int64
		Count int64
	}
	var agg aggregate
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_minor), 0) AS total, COUNT(*) AS count").
		Where("payout_id = ?", payoutID).
		Scan(&agg).Error
	return agg.Total, agg.Count, err
}

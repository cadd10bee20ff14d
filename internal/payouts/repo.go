package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	"github.com/zenartworks/revenue-backend/pkg/pagination"
)

// ListFilter narrows payout listings.
type ListFilter struct {
	Status enums.PayoutStatus
	Limit  int
	Cursor *pagination.Cursor
}

// Repository manages persistence for payouts and their claimed entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	List(ctx context.Context, filter ListFilter) ([]models.Payout, error)
	ListAll(ctx context.Context, limit int) ([]models.Payout, error)

	// ClaimEntries stamps the payout id onto every cleared, unclaimed entry of
	// the currency in one conditional UPDATE. Returns the number claimed.
	ClaimEntries(ctx context.Context, payoutID uuid.UUID, currency enums.Currency) (int64, error)
	// ReleaseEntries unsets payout_id on every entry assigned to the payout.
	ReleaseEntries(ctx context.Context, payoutID uuid.UUID) (int64, error)
	ListClaimed(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEntry, error)

	// SetAmount stamps the claimed total and count onto the payout row.
	SetAmount(ctx context.Context, id uuid.UUID, amountMinor int64, ledgerCount int) error
	// UpdateStatusIf transitions status only when the current status matches.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.PayoutStatus, externalRef *string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Payout, error) {
	query := r.db.WithContext(ctx).Model(&models.Payout{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	var payouts []models.Payout
	err := query.
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ListAll(ctx context.Context, limit int) ([]models.Payout, error) {
	var payouts []models.Payout
	query := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ClaimEntries(ctx context.Context, payoutID uuid.UUID, currency enums.Currency) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("status = ? AND payout_id IS NULL AND currency = ?", enums.LedgerEntryStatusCleared, currency).
		Update("payout_id", payoutID)
	return result.RowsAffected, result.Error
}

func (r *repository) ReleaseEntries(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("payout_id = ?", payoutID).
		Update("payout_id", nil)
	return result.RowsAffected, result.Error
}

func (r *repository) ListClaimed(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("payout_id = ?", payoutID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SetAmount(ctx context.Context, id uuid.UUID, amountMinor int64, ledgerCount int) error {
	return r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"amount_minor": amountMinor,
			"ledger_count": ledgerCount,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.PayoutStatus, externalRef *string) (int64, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if externalRef != nil {
		updates["external_ref"] = *externalRef
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

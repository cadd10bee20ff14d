package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/pkg/enums"
)

// LedgerEntry records one monetary line item derived from a commerce event.
// Rows are never deleted; refunds and cancellations are modeled as a status
// transition to void. PayoutID is stamped by the sweep claim and only ever
// unset by the payout failure rollback.
type LedgerEntry struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	SKUCode        string                  `gorm:"column:sku_code;not null"`
	LineIndex      int                     `gorm:"column:line_index;not null"`
	AmountMinor    int64                   `gorm:"column:amount_minor;not null"`
	Currency       enums.Currency          `gorm:"column:currency;type:text;not null;default:'USD'"`
	Status         enums.LedgerEntryStatus `gorm:"column:status;type:ledger_entry_status;not null;default:'pending'"`
	Stream         string                  `gorm:"column:stream;not null;default:''"`
	IdempotencyKey string                  `gorm:"column:idempotency_key;not null;unique"`
	PayoutID       *uuid.UUID              `gorm:"column:payout_id;type:uuid;index"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	ClearedAt      *time.Time              `gorm:"column:cleared_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/pkg/enums"
)

// Payout is a settlement batch of claimed ledger entries. Amount always equals
// the sum of the entries carrying this payout's id; completed and failed are
// terminal states.
type Payout struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalRef string             `gorm:"column:external_ref;not null;default:''"`
	AmountMinor int64              `gorm:"column:amount_minor;not null"`
	Currency    enums.Currency     `gorm:"column:currency;type:text;not null;default:'USD'"`
	Destination string             `gorm:"column:destination;not null"`
	Status      enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'initiated'"`
	LedgerCount int                `gorm:"column:ledger_count;not null;default:0"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

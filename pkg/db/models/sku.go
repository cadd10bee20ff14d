package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/pkg/enums"
)

// SKU is a catalog entry mapping a product code to its current unit price.
// Price changes never rewrite recorded ledger amounts; the effective price is
// captured on each entry at ingestion time.
type SKU struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string         `gorm:"column:code;not null;unique"`
	UnitPriceMinor int64          `gorm:"column:unit_price_minor;not null"`
	Currency       enums.Currency `gorm:"column:currency;type:text;not null;default:'USD'"`
	Active         bool           `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/pkg/enums"
)

// Order is the normalized commerce event accepted from a channel adapter.
// The (channel, external_id) pair is the ingestion idempotency key: re-ingesting
// the same pair returns the original row untouched.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Channel      string            `gorm:"column:channel;not null;uniqueIndex:ux_orders_channel_external"`
	ExternalID   string            `gorm:"column:external_id;not null;uniqueIndex:ux_orders_channel_external"`
	Status       enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'received'"`
	QualityScore float64           `gorm:"column:quality_score;not null;default:0"`
	OccurredAt   time.Time         `gorm:"column:occurred_at;not null"`
	Entries      []LedgerEntry     `gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

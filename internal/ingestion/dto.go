package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
)

// CommerceEvent is the normalized input produced by a channel adapter. The
// engine never sees gateway-specific payloads; adapters translate into this
// one shape before calling Ingest.
type CommerceEvent struct {
	Channel      string         `json:"channel"`
	ExternalID   string         `json:"external_id"`
	LineItems    []LineItem     `json:"line_items"`
	OccurredAt   time.Time      `json:"timestamp"`
	Settled      bool           `json:"settled"`
	QualityScore float64        `json:"quality_score"`
	Stream       string         `json:"stream"`
	Currency     enums.Currency `json:"currency"`
}

// LineItem is one sellable line of a commerce event. UnitPriceOverrideMinor
// takes precedence over the catalog price when present.
type LineItem struct {
	SKUCode                string `json:"sku"`
	Quantity               int64  `json:"quantity"`
	UnitPriceOverrideMinor *int64 `json:"unit_price_override,omitempty"`
}

// IngestResult carries the order and its entries. Duplicate marks the
// idempotent replay of an already-ingested event; the rows are the originals.
type IngestResult struct {
	Order     *models.Order
	Entries   []models.LedgerEntry
	Duplicate bool
}

// ClearResult reports the explicit settlement-confirmation path for an order.
type ClearResult struct {
	Order          *models.Order
	Entries        []models.LedgerEntry
	Transitioned   int
	AlreadyCleared bool
}

// entryIdempotencyKey derives the per-line dedupe key. The key survives
// retries of the same event and collides for nothing else.
func entryIdempotencyKey(channel, externalID string, lineIndex int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", channel, externalID, lineIndex)))
	return hex.EncodeToString(sum[:])
}

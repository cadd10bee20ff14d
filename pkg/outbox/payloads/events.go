package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/pkg/enums"
)

// OrderIngestedEvent signals a commerce event was accepted and its ledger
// entries were recorded.
type OrderIngestedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	Channel    string            `json:"channel"`
	ExternalID string            `json:"external_id"`
	Status     enums.OrderStatus `json:"status"`
	EntryCount int               `json:"entry_count"`
	GrossMinor int64             `json:"gross_minor"`
	Currency   enums.Currency    `json:"currency"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// LedgerEntryClearedEvent is emitted when an entry becomes eligible for payout.
type LedgerEntryClearedEvent struct {
	EntryID     uuid.UUID      `json:"entry_id"`
	OrderID     uuid.UUID      `json:"order_id"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    enums.Currency `json:"currency"`
	ClearedAt   time.Time      `json:"cleared_at"`
}

// LedgerEntryVoidedEvent is emitted when an entry is voided by refund or cancel.
type LedgerEntryVoidedEvent struct {
	EntryID     uuid.UUID      `json:"entry_id"`
	OrderID     uuid.UUID      `json:"order_id"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    enums.Currency `json:"currency"`
	Reason      string         `json:"reason,omitempty"`
}

// PayoutInitiatedEvent reports a sweep claimed cleared entries into a payout.
type PayoutInitiatedEvent struct {
	PayoutID    uuid.UUID      `json:"payout_id"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    enums.Currency `json:"currency"`
	LedgerCount int            `json:"ledger_count"`
	Destination string         `json:"destination"`
}

// PayoutSubmittedEvent reports a payout handed off to the settlement rail.
type PayoutSubmittedEvent struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	ExternalRef string    `json:"external_ref"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PayoutCompletedEvent reports terminal settlement success.
type PayoutCompletedEvent struct {
	PayoutID    uuid.UUID      `json:"payout_id"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    enums.Currency `json:"currency"`
	LedgerCount int            `json:"ledger_count"`
	CompletedAt time.Time      `json:"completed_at"`
}

// PayoutFailedEvent reports terminal settlement failure; the claimed entries
// have been released back to the claimable pool.
type PayoutFailedEvent struct {
	PayoutID        uuid.UUID `json:"payout_id"`
	ReleasedEntries int       `json:"released_entries"`
	Reason          string    `json:"reason,omitempty"`
	FailedAt        time.Time `json:"failed_at"`
}

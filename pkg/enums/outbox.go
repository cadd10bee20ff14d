package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateLedgerEntry OutboxAggregateType = "ledger_entry"
	AggregatePayout      OutboxAggregateType = "payout"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateLedgerEntry,
	AggregatePayout,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderIngested   OutboxEventType = "order_ingested"
	EventLedgerCleared   OutboxEventType = "ledger_cleared"
	EventLedgerVoided    OutboxEventType = "ledger_voided"
	EventPayoutInitiated OutboxEventType = "payout_initiated"
	EventPayoutSubmitted OutboxEventType = "payout_submitted"
	EventPayoutCompleted OutboxEventType = "payout_completed"
	EventPayoutFailed    OutboxEventType = "payout_failed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderIngested,
	EventLedgerCleared,
	EventLedgerVoided,
	EventPayoutInitiated,
	EventPayoutSubmitted,
	EventPayoutCompleted,
	EventPayoutFailed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

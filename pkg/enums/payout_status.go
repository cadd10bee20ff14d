package enums

import "fmt"

// PayoutStatus maps to the payout_status enum in Postgres.
type PayoutStatus string

const (
	PayoutStatusInitiated  PayoutStatus = "initiated"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusInitiated,
	PayoutStatusProcessing,
	PayoutStatusCompleted,
	PayoutStatusFailed,
}

// String implements fmt.Stringer.
func (s PayoutStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusCompleted || s == PayoutStatusFailed
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}

// PayoutOutcome is the settlement channel's final verdict for a submitted payout.
type PayoutOutcome string

const (
	PayoutOutcomeCompleted PayoutOutcome = "completed"
	PayoutOutcomeFailed    PayoutOutcome = "failed"
)

var validPayoutOutcomes = []PayoutOutcome{
	PayoutOutcomeCompleted,
	PayoutOutcomeFailed,
}

// IsValid reports whether the value is known.
func (o PayoutOutcome) IsValid() bool {
	for _, candidate := range validPayoutOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParsePayoutOutcome converts raw input into a PayoutOutcome.
func ParsePayoutOutcome(value string) (PayoutOutcome, error) {
	for _, candidate := range validPayoutOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout outcome %q", value)
}

package enums

import "fmt"

// LedgerEntryStatus maps to the ledger_entry_status enum in Postgres.
type LedgerEntryStatus string

const (
	LedgerEntryStatusPending LedgerEntryStatus = "pending"
	LedgerEntryStatusCleared LedgerEntryStatus = "cleared"
	LedgerEntryStatusVoid    LedgerEntryStatus = "void"
)

var validLedgerEntryStatuses = []LedgerEntryStatus{
	LedgerEntryStatusPending,
	LedgerEntryStatusCleared,
	LedgerEntryStatusVoid,
}

// String implements fmt.Stringer.
func (s LedgerEntryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s LedgerEntryStatus) IsValid() bool {
	for _, candidate := range validLedgerEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLedgerEntryStatus converts raw input into a LedgerEntryStatus.
func ParseLedgerEntryStatus(value string) (LedgerEntryStatus, error) {
	for _, candidate := range validLedgerEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry status %q", value)
}

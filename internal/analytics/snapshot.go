package analytics

import (
	"encoding/json"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

// SnapshotRow mirrors the ledger_snapshots BigQuery schema.
type SnapshotRow struct {
	SnapshotID  string             `bigquery:"snapshot_id"`
	WindowFrom  time.Time          `bigquery:"window_from"`
	WindowTo    time.Time          `bigquery:"window_to"`
	EntryCount  int64              `bigquery:"entry_count"`
	GrossMinor  int64              `bigquery:"gross_minor"`
	ByStatus    cbigquery.NullJSON `bigquery:"by_status"`
	ByStream    cbigquery.NullJSON `bigquery:"by_stream"`
	ByCurrency  cbigquery.NullJSON `bigquery:"by_currency"`
	GeneratedAt time.Time          `bigquery:"generated_at"`
}

// BuildSnapshotRow converts a summary into its export row.
func BuildSnapshotRow(summary *Summary) (*SnapshotRow, error) {
	byStatus, err := encodeJSON(summary.ByStatus)
	if err != nil {
		return nil, err
	}
	byStream, err := encodeJSON(summary.ByStream)
	if err != nil {
		return nil, err
	}
	byCurrency, err := encodeJSON(summary.ByCurrency)
	if err != nil {
		return nil, err
	}
	return &SnapshotRow{
		SnapshotID:  uuid.NewString(),
		WindowFrom:  summary.Window.From,
		WindowTo:    summary.Window.To,
		EntryCount:  summary.Count,
		GrossMinor:  summary.GrossMinor,
		ByStatus:    byStatus,
		ByStream:    byStream,
		ByCurrency:  byCurrency,
		GeneratedAt: summary.GeneratedAt,
	}, nil
}

func encodeJSON(payload any) (cbigquery.NullJSON, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return cbigquery.NullJSON{}, err
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}

package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	pkgbigquery "github.com/zenartworks/revenue-backend/pkg/bigquery"
)

type insertCall struct {
	table    string
	rowCount int
}

type fakeInserter struct {
	responses []error
	calls     []insertCall
	index     int
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.calls = append(f.calls, insertCall{table: table, rowCount: len(rows)})
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	return err
}

func newWriterWithFakeInserter(t *testing.T) (*SnapshotWriter, *fakeInserter) {
	t.Helper()
	writer, err := NewSnapshotWriter(&pkgbigquery.Client{}, "ledger_snapshots", RetryPolicy{
		InitialBackoff: time.Millisecond,
		MaximumBackoff: 2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("construct writer: %v", err)
	}
	fake := &fakeInserter{}
	writer.client = fake
	return writer, fake
}

func TestNewSnapshotWriterValidation(t *testing.T) {
	if _, err := NewSnapshotWriter(nil, "ledger_snapshots", RetryPolicy{}); err == nil {
		t.Fatal("expected error when client missing")
	}
	if _, err := NewSnapshotWriter(&pkgbigquery.Client{}, "  ", RetryPolicy{}); err == nil {
		t.Fatal("expected error when table missing")
	}
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	if err := writer.Write(context.Background(), &SnapshotRow{SnapshotID: "snap-1"}); err != nil {
		t.Fatalf("unexpected error writing row: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected two insert attempts, got %d", len(fake.calls))
	}
	if fake.calls[0].table != "ledger_snapshots" || fake.calls[0].rowCount != 1 {
		t.Fatalf("unexpected first call %+v", fake.calls[0])
	}
}

func TestWriterStopsOnNonRetryableError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusBadRequest},
		nil,
	}

	if err := writer.Write(context.Background(), &SnapshotRow{SnapshotID: "snap-1"}); err == nil {
		t.Fatal("expected error for bad request")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected single attempt, got %d", len(fake.calls))
	}
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		&googleapi.Error{Code: http.StatusServiceUnavailable},
	}

	if err := writer.Write(context.Background(), &SnapshotRow{SnapshotID: "snap-1"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if len(fake.calls) != defaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", defaultMaxAttempts, len(fake.calls))
	}
}

func TestBuildSnapshotRowEncodesBuckets(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	summary := &Summary{
		Window:     Window{From: from, To: from.Add(time.Hour)},
		Count:      2,
		GrossMinor: 3000,
		ByStatus:   map[string]Bucket{"cleared": {Key: "cleared", Count: 2, AmountMinor: 3000}},
		ByStream:   map[string]Bucket{"retail": {Key: "retail", Count: 2, AmountMinor: 3000}},
		ByCurrency: map[string]CurrencyBucket{"USD": {Count: 2, AmountMinor: 3000, Amount: "30.00"}},
	}

	row, err := BuildSnapshotRow(summary)
	if err != nil {
		t.Fatalf("BuildSnapshotRow: %v", err)
	}
	if row.SnapshotID == "" {
		t.Fatal("missing snapshot id")
	}
	if row.EntryCount != 2 || row.GrossMinor != 3000 {
		t.Fatalf("unexpected totals %d/%d", row.EntryCount, row.GrossMinor)
	}
	if !row.ByStatus.Valid {
		t.Fatal("by_status json should be valid")
	}
	var decoded map[string]Bucket
	if err := json.Unmarshal([]byte(row.ByStatus.JSONVal), &decoded); err != nil {
		t.Fatalf("decode by_status: %v", err)
	}
	if decoded["cleared"].AmountMinor != 3000 {
		t.Fatalf("unexpected decoded bucket %+v", decoded["cleared"])
	}
}

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	// every pooled connection to :memory: opens its own database
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.Exec(`CREATE TABLE ledger_entries (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		sku_code TEXT NOT NULL,
		line_index INTEGER NOT NULL,
		amount_minor INTEGER NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		status TEXT NOT NULL DEFAULT 'pending',
		stream TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT NOT NULL UNIQUE,
		payout_id TEXT,
		created_at DATETIME,
		cleared_at DATETIME
	)`).Error)
	return conn
}

func seedEntry(t *testing.T, conn *gorm.DB, status enums.LedgerEntryStatus, stream string, amount int64, createdAt time.Time) {
	t.Helper()
	entry := models.LedgerEntry{
		ID:             uuid.New(),
		OrderID:        uuid.New(),
		SKUCode:        "ZEN-ART-BASE",
		AmountMinor:    amount,
		Currency:       enums.CurrencyUSD,
		Status:         status,
		Stream:         stream,
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      createdAt,
	}
	require.NoError(t, conn.Create(&entry).Error)
}

func TestRepository_TotalsHonorWindowBounds(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	seedEntry(t, conn, enums.LedgerEntryStatusCleared, "retail", 1000, from)                   // inclusive lower bound
	seedEntry(t, conn, enums.LedgerEntryStatusPending, "retail", 2000, from.Add(12*time.Hour)) // inside
	seedEntry(t, conn, enums.LedgerEntryStatusCleared, "retail", 4000, to)                     // exclusive upper bound
	seedEntry(t, conn, enums.LedgerEntryStatusCleared, "retail", 8000, from.Add(-time.Second)) // before

	count, gross, err := repo.Totals(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, int64(3000), gross)
}

func TestRepository_GroupByStatusAndStream(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	at := from.Add(time.Minute)

	seedEntry(t, conn, enums.LedgerEntryStatusCleared, "retail", 1000, at)
	seedEntry(t, conn, enums.LedgerEntryStatusCleared, "wholesale", 2000, at)
	seedEntry(t, conn, enums.LedgerEntryStatusPending, "retail", 500, at)
	seedEntry(t, conn, enums.LedgerEntryStatusVoid, "retail", 900, at)

	byStatus, err := repo.GroupByStatus(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, byStatus, 3)
	statuses := map[string]Bucket{}
	for _, bucket := range byStatus {
		statuses[bucket.Key] = bucket
	}
	assert.Equal(t, int64(3000), statuses["cleared"].AmountMinor)
	assert.Equal(t, int64(2), statuses["cleared"].Count)
	assert.Equal(t, int64(500), statuses["pending"].AmountMinor)
	assert.Equal(t, int64(900), statuses["void"].AmountMinor)

	byStream, err := repo.GroupByStream(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, byStream, 2)
	streams := map[string]Bucket{}
	for _, bucket := range byStream {
		streams[bucket.Key] = bucket
	}
	assert.Equal(t, int64(2400), streams["retail"].AmountMinor)
	assert.Equal(t, int64(3), streams["retail"].Count)
	assert.Equal(t, int64(2000), streams["wholesale"].AmountMinor)
}

func TestRepository_GroupByCurrency(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	at := from.Add(time.Minute)

	seedEntry(t, conn, enums.LedgerEntryStatusCleared, "retail", 1000, at)
	eur := models.LedgerEntry{
		ID:             uuid.New(),
		OrderID:        uuid.New(),
		SKUCode:        "ZEN-ART-BASE",
		AmountMinor:    700,
		Currency:       enums.CurrencyEUR,
		Status:         enums.LedgerEntryStatusCleared,
		Stream:         "retail",
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      at,
	}
	require.NoError(t, conn.Create(&eur).Error)

	buckets, err := repo.GroupByCurrency(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "EUR", buckets[0].Key)
	assert.Equal(t, int64(700), buckets[0].AmountMinor)
	assert.Equal(t, "USD", buckets[1].Key)
	assert.Equal(t, int64(1000), buckets[1].AmountMinor)
}

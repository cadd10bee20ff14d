package outbox

import (
	"context"
	"encoding/json"
	"errors"
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

func openOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := `CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func outboxRow(eventType enums.OutboxEventType, createdAt time.Time) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		CreatedAt:     createdAt,
	}
}

func TestRepositoryInsertAndExists(t *testing.T) {
	conn := openOutboxTestDB(t)
	repo := NewRepository(conn)

	row := outboxRow(enums.EventOrderIngested, time.Now().UTC())
	require.NoError(t, repo.Insert(conn, row))

	exists, err := repo.ExistsTx(conn, row.EventType, row.AggregateType, row.AggregateID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsTx(conn, row.EventType, row.AggregateType, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	require.Error(t, repo.Insert(nil, row))
}

func TestRepositoryFetchUnpublishedOrdersOldestFirst(t *testing.T) {
	conn := openOutboxTestDB(t)
	repo := NewRepository(conn)

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	second := outboxRow(enums.EventOrderIngested, base.Add(time.Minute))
	first := outboxRow(enums.EventOrderIngested, base)
	require.NoError(t, repo.Insert(conn, second))
	require.NoError(t, repo.Insert(conn, first))

	published := outboxRow(enums.EventLedgerCleared, base)
	require.NoError(t, repo.Insert(conn, published))
	require.NoError(t, repo.MarkPublished(published.ID))

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
}

func TestRepositoryMarkFailedIncrementsAttempts(t *testing.T) {
	conn := openOutboxTestDB(t)
	repo := NewRepository(conn)

	row := outboxRow(enums.EventOrderIngested, time.Now().UTC())
	require.NoError(t, repo.Insert(conn, row))

	require.NoError(t, repo.MarkFailed(row.ID, errors.New("broker down")))
	require.NoError(t, repo.MarkFailedTx(conn, row.ID, errors.New("broker still down")))

	var got models.OutboxEvent
	require.NoError(t, conn.First(&got, "id = ?", row.ID).Error)
	assert.Equal(t, 2, got.AttemptCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "broker still down", *got.LastError)
	assert.Nil(t, got.PublishedAt)
}

func TestRepositoryMarkTerminalPinsAttempts(t *testing.T) {
	conn := openOutboxTestDB(t)
	repo := NewRepository(conn)

	row := outboxRow(enums.EventPayoutInitiated, time.Now().UTC())
	require.NoError(t, repo.Insert(conn, row))

	require.NoError(t, repo.MarkTerminalTx(conn, row.ID, errors.New("unknown event"), 10))

	var got models.OutboxEvent
	require.NoError(t, conn.First(&got, "id = ?", row.ID).Error)
	assert.Equal(t, 10, got.AttemptCount)
	assert.Nil(t, got.PublishedAt)
}

func TestRepositoryMarkPublishedTxStampsTimestamp(t *testing.T) {
	conn := openOutboxTestDB(t)
	repo := NewRepository(conn)

	row := outboxRow(enums.EventOrderIngested, time.Now().UTC())
	require.NoError(t, repo.Insert(conn, row))
	require.NoError(t, repo.MarkPublishedTx(conn, row.ID))

	var got models.OutboxEvent
	require.NoError(t, conn.First(&got, "id = ?", row.ID).Error)
	require.NotNil(t, got.PublishedAt)
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	conn := openOutboxTestDB(t)
	repo := NewRepository(conn)

	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	old := outboxRow(enums.EventOrderIngested, cutoff.Add(-48*time.Hour))
	require.NoError(t, repo.Insert(conn, old))
	oldPublished := cutoff.Add(-24 * time.Hour)
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("id = ?", old.ID).
		Update("published_at", oldPublished).Error)

	recent := outboxRow(enums.EventLedgerCleared, cutoff)
	require.NoError(t, repo.Insert(conn, recent))
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("id = ?", recent.ID).
		Update("published_at", cutoff.Add(time.Hour)).Error)

	pending := outboxRow(enums.EventPayoutInitiated, cutoff)
	require.NoError(t, repo.Insert(conn, pending))

	removed, err := repo.DeletePublishedBefore(context.Background(), cutoff, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var remaining int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

package outbox

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

func TestServiceEmitWritesEnvelope(t *testing.T) {
	conn := openOutboxTestDB(t)
	repo := NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	svc := NewService(repo, logg)

	aggregateID := uuid.New()
	occurred := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventOrderIngested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   aggregateID,
		Data:          map[string]any{"order_id": aggregateID.String()},
		Version:       1,
		OccurredAt:    occurred,
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row).Error)
	assert.Equal(t, enums.EventOrderIngested, row.EventType)
	assert.Equal(t, aggregateID, row.AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.True(t, envelope.OccurredAt.Equal(occurred))

	var data map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, aggregateID.String(), data["order_id"])
}

func TestServiceEmitRequiresTx(t *testing.T) {
	conn := openOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventOrderIngested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	require.Error(t, err)
}

func TestServiceEmitIfNotExistsSkipsDuplicate(t *testing.T) {
	conn := openOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	event := DomainEvent{
		EventType:     enums.EventPayoutInitiated,
		AggregateType: enums.AggregatePayout,
		AggregateID:   uuid.New(),
		Data:          map[string]any{"amount_minor": 1200},
		Version:       1,
	}
	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, event))
	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, event))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

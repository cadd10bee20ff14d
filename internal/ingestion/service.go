package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/internal/ledger"
	dbpkg "github.com/zenartworks/revenue-backend/pkg/db"
	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/outbox"
	"github.com/zenartworks/revenue-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SKUResolver prices a catalog code. Inactive and missing codes both fail.
type SKUResolver interface {
	Resolve(ctx context.Context, code string) (*models.SKU, error)
}

// Service normalizes commerce events into orders plus ledger entries.
type Service interface {
	Ingest(ctx context.Context, event CommerceEvent) (*IngestResult, error)
	Clear(ctx context.Context, orderID uuid.UUID) (*ClearResult, error)
}

type service struct {
	orders  Repository
	entries ledger.Repository
	catalog SKUResolver
	tx      txRunner
	outbox  outboxPublisher
}

// NewService builds an ingestion service with the required dependencies.
func NewService(orders Repository, entries ledger.Repository, catalog SKUResolver, tx txRunner, ob outboxPublisher) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if entries == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{orders: orders, entries: entries, catalog: catalog, tx: tx, outbox: ob}, nil
}

// Ingest records a commerce event exactly once. Replaying the same
// (channel, external_id) returns the original rows flagged Duplicate; a
// concurrent replay that loses the insert race is folded into the same path.
func (s *service) Ingest(ctx context.Context, event CommerceEvent) (*IngestResult, error) {
	event.Channel = strings.TrimSpace(event.Channel)
	event.ExternalID = strings.TrimSpace(event.ExternalID)
	if event.Channel == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel required")
	}
	if event.ExternalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external id required")
	}
	if len(event.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}

	if existing, err := s.orders.FindByKey(ctx, event.Channel, event.ExternalID); err == nil {
		return &IngestResult{Order: existing, Entries: existing.Entries, Duplicate: true}, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}

	lines, err := s.priceLines(ctx, event)
	if err != nil {
		return nil, err
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	result := &IngestResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		entries := s.entries.WithTx(tx)

		order := &models.Order{
			ID:           uuid.New(),
			Channel:      event.Channel,
			ExternalID:   event.ExternalID,
			Status:       enums.OrderStatusValid,
			QualityScore: event.QualityScore,
			OccurredAt:   occurredAt,
		}
		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		status := enums.LedgerEntryStatusPending
		var clearedAt *time.Time
		if event.Settled {
			status = enums.LedgerEntryStatusCleared
			now := time.Now().UTC()
			clearedAt = &now
		}

		rows := make([]models.LedgerEntry, 0, len(lines))
		var gross int64
		for i, line := range lines {
			rows = append(rows, models.LedgerEntry{
				ID:             uuid.New(),
				OrderID:        order.ID,
				SKUCode:        line.skuCode,
				LineIndex:      i,
				AmountMinor:    line.amountMinor,
				Currency:       line.currency,
				Status:         status,
				Stream:         event.Stream,
				IdempotencyKey: entryIdempotencyKey(event.Channel, event.ExternalID, i),
				ClearedAt:      clearedAt,
			})
			gross += line.amountMinor
		}
		if err := entries.CreateBatch(ctx, rows); err != nil {
			return err
		}

		result.Order = order
		result.Entries = rows

		currency := enums.CurrencyUSD
		if len(lines) > 0 {
			currency = lines[0].currency
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderIngested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{Channel: event.Channel},
			Data: payloads.OrderIngestedEvent{
				OrderID:    order.ID,
				Channel:    event.Channel,
				ExternalID: event.ExternalID,
				Status:     order.Status,
				EntryCount: len(rows),
				GrossMinor: gross,
				Currency:   currency,
				OccurredAt: occurredAt,
			},
		})
	})
	if err != nil {
		// two adapters racing the same webhook: the loser re-reads the
		// winner's rows and reports the idempotent result
		if dbpkg.IsUniqueViolation(err, "ux_orders_channel_external") {
			existing, lookupErr := s.orders.FindByKey(ctx, event.Channel, event.ExternalID)
			if lookupErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "reload original order")
			}
			return &IngestResult{Order: existing, Entries: existing.Entries, Duplicate: true}, nil
		}
		if coded := pkgerrors.As(err); coded != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ingest commerce event")
	}
	return result, nil
}

type pricedLine struct {
	skuCode     string
	amountMinor int64
	currency    enums.Currency
}

// priceLines resolves every line item before any row is written, so a bad
// line rejects the whole event with nothing persisted.
func (s *service) priceLines(ctx context.Context, event CommerceEvent) ([]pricedLine, error) {
	lines := make([]pricedLine, 0, len(event.LineItems))
	for i, item := range event.LineItems {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}

		var unitPrice int64
		var currency enums.Currency

		if item.UnitPriceOverrideMinor != nil {
			if *item.UnitPriceOverrideMinor <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: override price must be positive", i))
			}
			unitPrice = *item.UnitPriceOverrideMinor
			currency = event.Currency
			if sku, err := s.catalog.Resolve(ctx, item.SKUCode); err == nil {
				currency = sku.Currency
			}
			if currency == "" {
				currency = enums.CurrencyUSD
			}
			if !currency.IsValid() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: invalid currency %q", i, currency))
			}
		} else {
			sku, err := s.catalog.Resolve(ctx, item.SKUCode)
			if err != nil {
				return nil, err
			}
			if sku.UnitPriceMinor <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: sku has no positive price", i))
			}
			unitPrice = sku.UnitPriceMinor
			currency = sku.Currency
		}

		amountMinor := item.Quantity * unitPrice
		if amountMinor/unitPrice != item.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: line amount overflows", i))
		}

		lines = append(lines, pricedLine{
			skuCode:     item.SKUCode,
			amountMinor: amountMinor,
			currency:    currency,
		})
	}
	return lines, nil
}

// Clear transitions every pending entry of the order to cleared. Re-clearing
// a fully cleared order is a no-op reported via AlreadyCleared; any void
// entry rejects the call.
func (s *service) Clear(ctx context.Context, orderID uuid.UUID) (*ClearResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	result := &ClearResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		entries := s.entries.WithTx(tx)

		order, err := orders.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		for _, entry := range order.Entries {
			if entry.Status == enums.LedgerEntryStatusVoid {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "void entry cannot be cleared").
					WithDetails(map[string]string{"entry_id": entry.ID.String()})
			}
		}

		clearedAt := time.Now().UTC()
		transitioned := 0
		for i := range order.Entries {
			entry := &order.Entries[i]
			if entry.Status != enums.LedgerEntryStatusPending {
				continue
			}
			rows, err := entries.UpdateStatusIf(ctx, entry.ID, enums.LedgerEntryStatusPending, enums.LedgerEntryStatusCleared, &clearedAt)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear ledger entry")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "entry changed state concurrently")
			}
			entry.Status = enums.LedgerEntryStatusCleared
			entry.ClearedAt = &clearedAt
			transitioned++

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLedgerCleared,
				AggregateType: enums.AggregateLedgerEntry,
				AggregateID:   entry.ID,
				Version:       1,
				Data: payloads.LedgerEntryClearedEvent{
					EntryID:     entry.ID,
					OrderID:     order.ID,
					AmountMinor: entry.AmountMinor,
					Currency:    entry.Currency,
					ClearedAt:   clearedAt,
				},
			}); err != nil {
				return err
			}
		}

		result.Order = order
		result.Entries = order.Entries
		result.Transitioned = transitioned
		result.AlreadyCleared = transitioned == 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

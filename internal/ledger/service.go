package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/outbox"
	"github.com/zenartworks/revenue-backend/pkg/outbox/payloads"
	"github.com/zenartworks/revenue-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines read and transition operations over ledger entries.
type Service interface {
	Query(ctx context.Context, input QueryInput) (*QueryResult, error)
	MarkCleared(ctx context.Context, entryID uuid.UUID) (*ClearOutcome, error)
	MarkVoid(ctx context.Context, entryID uuid.UUID, reason string) (*VoidOutcome, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// QueryInput carries listing filters plus cursor pagination parameters.
type QueryInput struct {
	Status enums.LedgerEntryStatus
	Stream string
	From   time.Time
	To     time.Time
	Limit  int
	Cursor string
}

// QueryResult is one page of entries with the cursor for the next page.
type QueryResult struct {
	Entries    []models.LedgerEntry
	NextCursor string
}

// ClearOutcome reports a clear transition. AlreadyCleared marks the
// idempotent re-clear of an entry that was cleared before.
type ClearOutcome struct {
	Entry          *models.LedgerEntry
	AlreadyCleared bool
}

// VoidOutcome reports a void transition.
type VoidOutcome struct {
	Entry       *models.LedgerEntry
	AlreadyVoid bool
}

// NewService wires a ledger service with its persistence and outbox deps.
func NewService(repo Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: ob}, nil
}

func (s *service) Query(ctx context.Context, input QueryInput) (*QueryResult, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	filter := QueryFilter{
		Status: input.Status,
		Stream: input.Stream,
		From:   input.From,
		To:     input.To,
		Limit:  input.Limit,
		Cursor: cursor,
	}
	entries, err := s.repo.Query(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query ledger entries")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &QueryResult{Entries: entries}
	if len(entries) > limit {
		result.Entries = entries[:limit]
		last := result.Entries[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) MarkCleared(ctx context.Context, entryID uuid.UUID) (*ClearOutcome, error) {
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id required")
	}

	outcome := &ClearOutcome{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindByID(ctx, entryID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entry")
		}

		switch entry.Status {
		case enums.LedgerEntryStatusCleared:
			outcome.Entry = entry
			outcome.AlreadyCleared = true
			return nil
		case enums.LedgerEntryStatusVoid:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "void entry cannot be cleared")
		}

		clearedAt := time.Now().UTC()
		rows, err := repo.UpdateStatusIf(ctx, entry.ID, enums.LedgerEntryStatusPending, enums.LedgerEntryStatusCleared, &clearedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear ledger entry")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "entry changed state concurrently")
		}

		entry.Status = enums.LedgerEntryStatusCleared
		entry.ClearedAt = &clearedAt
		outcome.Entry = entry

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLedgerCleared,
			AggregateType: enums.AggregateLedgerEntry,
			AggregateID:   entry.ID,
			Version:       1,
			Data: payloads.LedgerEntryClearedEvent{
				EntryID:     entry.ID,
				OrderID:     entry.OrderID,
				AmountMinor: entry.AmountMinor,
				Currency:    entry.Currency,
				ClearedAt:   clearedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *service) MarkVoid(ctx context.Context, entryID uuid.UUID, reason string) (*VoidOutcome, error) {
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id required")
	}

	outcome := &VoidOutcome{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindByID(ctx, entryID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entry")
		}

		if entry.Status == enums.LedgerEntryStatusVoid {
			outcome.Entry = entry
			outcome.AlreadyVoid = true
			return nil
		}
		if entry.PayoutID != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "entry is claimed by a payout")
		}

		rows, err := repo.VoidIfUnclaimed(ctx, entry.ID, entry.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void ledger entry")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "entry changed state concurrently")
		}

		entry.Status = enums.LedgerEntryStatusVoid
		outcome.Entry = entry

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLedgerVoided,
			AggregateType: enums.AggregateLedgerEntry,
			AggregateID:   entry.ID,
			Version:       1,
			Data: payloads.LedgerEntryVoidedEvent{
				EntryID:     entry.ID,
				OrderID:     entry.OrderID,
				AmountMinor: entry.AmountMinor,
				Currency:    entry.Currency,
				Reason:      reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
	"github.com/zenartworks/revenue-backend/pkg/outbox"
	"github.com/zenartworks/revenue-backend/pkg/outbox/payloads"
	"github.com/zenartworks/revenue-backend/pkg/pagination"
)

// errNoEligibleFunds aborts the sweep transaction so the empty payout row is
// rolled back. It never leaves the service.
var errNoEligibleFunds = errors.New("no eligible funds")

// SweepInput parameterizes a payout sweep.
type SweepInput struct {
	Destination string
	Currency    enums.Currency
}

// SweepResult reports the outcome of a sweep. Swept is false when no cleared,
// unclaimed entries of the currency existed; that is not an error.
type SweepResult struct {
	Payout  *models.Payout
	Entries []models.LedgerEntry
	Swept   bool
}

// ConfirmOutcome is the terminal state requested for a processing payout.
type ConfirmOutcome string

const (
	OutcomeCompleted ConfirmOutcome = "completed"
	OutcomeFailed    ConfirmOutcome = "failed"
)

// ConfirmInput parameterizes payout confirmation.
type ConfirmInput struct {
	PayoutID uuid.UUID
	Outcome  ConfirmOutcome
	Reason   string
}

// ConfirmResult reports a confirmation. ReleasedEntries is non-zero only on
// the failed path.
type ConfirmResult struct {
	Payout          *models.Payout
	ReleasedEntries int64
	AlreadyFinal    bool
}

// ListInput parameterizes payout listings.
type ListInput struct {
	Status string
	Limit  int
	Cursor string
}

// ListResult is one page of payouts.
type ListResult struct {
	Payouts    []models.Payout
	NextCursor string
}

// Violation is one reconciliation failure for a single payout.
type Violation struct {
	PayoutID      uuid.UUID
	Status        enums.PayoutStatus
	ExpectedMinor int64
	AssignedMinor int64
	AssignedCount int64
	Description   string
}

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	Checked    int
	Violations []Violation
}

// Service drives the payout state machine.
type Service interface {
	// Sweep claims every cleared, unclaimed entry of the currency into a new
	// payout. The claim is a single conditional UPDATE; entries cleared after
	// it runs wait for the next sweep.
	Sweep(ctx context.Context, input SweepInput) (*SweepResult, error)
	// Submit moves an initiated payout to processing, recording the
	// gateway reference.
	Submit(ctx context.Context, payoutID uuid.UUID, externalRef string) (*models.Payout, error)
	// Confirm finishes a processing payout. The failed outcome releases all
	// claimed entries back to the sweepable pool in the same transaction.
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
	// Reconcile checks every payout against its assigned entries and returns
	// the violations found alongside an aggregated error.
	Reconcile(ctx context.Context, limit int) (*ReconcileReport, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the payout service.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: ob, logg: logg}, nil
}

func (s *service) Sweep(ctx context.Context, input SweepInput) (*SweepResult, error) {
	input.Destination = strings.TrimSpace(input.Destination)
	if input.Destination == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination required")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}

	result := &SweepResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout := &models.Payout{
			ID:          uuid.New(),
			Currency:    input.Currency,
			Destination: input.Destination,
			Status:      enums.PayoutStatusInitiated,
		}
		if err := repo.Create(ctx, payout); err != nil {
			return err
		}

		claimed, err := repo.ClaimEntries(ctx, payout.ID, input.Currency)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return errNoEligibleFunds
		}

		entries, err := repo.ListClaimed(ctx, payout.ID)
		if err != nil {
			return err
		}
		var total int64
		for _, entry := range entries {
			total += entry.AmountMinor
		}
		if err := repo.SetAmount(ctx, payout.ID, total, len(entries)); err != nil {
			return err
		}
		payout.AmountMinor = total
		payout.LedgerCount = len(entries)

		result.Payout = payout
		result.Entries = entries
		result.Swept = true

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutInitiated,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Version:       1,
			Data: payloads.PayoutInitiatedEvent{
				PayoutID:    payout.ID,
				AmountMinor: total,
				Currency:    payout.Currency,
				LedgerCount: len(entries),
				Destination: payout.Destination,
			},
		})
	})
	if err != nil {
		if errors.Is(err, errNoEligibleFunds) {
			return &SweepResult{Swept: false}, nil
		}
		if coded := pkgerrors.As(err); coded != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep payout")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"payout_id":    result.Payout.ID.String(),
		"amount_minor": result.Payout.AmountMinor,
		"ledger_count": result.Payout.LedgerCount,
		"currency":     result.Payout.Currency.String(),
	})
	s.logg.Info(logCtx, "payout swept")
	return result, nil
}

func (s *service) Submit(ctx context.Context, payoutID uuid.UUID, externalRef string) (*models.Payout, error) {
	externalRef = strings.TrimSpace(externalRef)
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if externalRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external ref required")
	}

	var submitted *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByID(ctx, payoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}

		switch payout.Status {
		case enums.PayoutStatusProcessing:
			if payout.ExternalRef == externalRef {
				// retried submission
				submitted = payout
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already submitted with a different reference")
		case enums.PayoutStatusCompleted, enums.PayoutStatusFailed:
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payout is %s", payout.Status))
		}

		rows, err := repo.UpdateStatusIf(ctx, payoutID, enums.PayoutStatusInitiated, enums.PayoutStatusProcessing, &externalRef)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit payout")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout changed state concurrently")
		}
		payout.Status = enums.PayoutStatusProcessing
		payout.ExternalRef = externalRef
		submitted = payout

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutSubmitted,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Version:       1,
			Data: payloads.PayoutSubmittedEvent{
				PayoutID:    payout.ID,
				ExternalRef: externalRef,
				SubmittedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return submitted, nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.Outcome != OutcomeCompleted && input.Outcome != OutcomeFailed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid outcome %q", input.Outcome))
	}
	if input.Outcome == OutcomeFailed && strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure reason required")
	}

	result := &ConfirmResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByID(ctx, input.PayoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}

		target := enums.PayoutStatusCompleted
		if input.Outcome == OutcomeFailed {
			target = enums.PayoutStatusFailed
		}
		if payout.Status == target {
			result.Payout = payout
			result.AlreadyFinal = true
			return nil
		}
		if payout.Status != enums.PayoutStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payout is %s, only processing payouts can be confirmed", payout.Status))
		}

		rows, err := repo.UpdateStatusIf(ctx, payout.ID, enums.PayoutStatusProcessing, target, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payout")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout changed state concurrently")
		}
		payout.Status = target
		result.Payout = payout

		if input.Outcome == OutcomeFailed {
			released, err := repo.ReleaseEntries(ctx, payout.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release claimed entries")
			}
			result.ReleasedEntries = released

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPayoutFailed,
				AggregateType: enums.AggregatePayout,
				AggregateID:   payout.ID,
				Version:       1,
				Data: payloads.PayoutFailedEvent{
					PayoutID:        payout.ID,
					ReleasedEntries: int(released),
					Reason:          input.Reason,
					FailedAt:        time.Now().UTC(),
				},
			})
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutCompleted,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Version:       1,
			Data: payloads.PayoutCompletedEvent{
				PayoutID:    payout.ID,
				AmountMinor: payout.AmountMinor,
				Currency:    payout.Currency,
				LedgerCount: payout.LedgerCount,
				CompletedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Reconcile(ctx context.Context, limit int) (*ReconcileReport, error) {
	payouts, err := s.repo.ListAll(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}

	report := &ReconcileReport{Checked: len(payouts)}
	var errs error
	for _, payout := range payouts {
		entries, err := s.repo.ListClaimed(ctx, payout.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assigned entries")
		}

		violation := checkPayout(payout, entries)
		if violation == nil {
			continue
		}

		// A confirm committing between the two reads leaves a stale payout
		// snapshot next to fresh entries. Re-read both sides and re-apply the
		// rules before treating the mismatch as drift.
		fresh, err := s.repo.FindByID(ctx, payout.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payout")
		}
		entries, err = s.repo.ListClaimed(ctx, fresh.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assigned entries")
		}
		violation = checkPayout(*fresh, entries)
		if violation == nil {
			continue
		}

		report.Violations = append(report.Violations, *violation)
		if fresh.Status == enums.PayoutStatusFailed {
			errs = multierr.Append(errs, fmt.Errorf("payout %s: %s", fresh.ID, violation.Description))
		} else {
			errs = multierr.Append(errs, fmt.Errorf(
				"payout %s: amount %d, assigned %d over %d entries",
				fresh.ID, fresh.AmountMinor, violation.AssignedMinor, violation.AssignedCount,
			))
		}
	}

	if errs != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"checked":    report.Checked,
			"violations": len(report.Violations),
		})
		s.logg.Error(logCtx, "reconciliation found violations", errs)
		return report, pkgerrors.Wrap(pkgerrors.CodeStateConflict, errs, "ledger reconciliation failed")
	}
	return report, nil
}

// checkPayout applies the conservation rules to a payout and its assigned
// entries. Failed payouts must hold nothing; every other payout must carry
// exactly the sum and count it was stamped with. Returns nil when consistent.
func checkPayout(payout models.Payout, entries []models.LedgerEntry) *Violation {
	var assigned int64
	for _, entry := range entries {
		assigned += entry.AmountMinor
	}

	if payout.Status == enums.PayoutStatusFailed {
		if len(entries) != 0 {
			return &Violation{
				PayoutID:      payout.ID,
				Status:        payout.Status,
				AssignedMinor: assigned,
				AssignedCount: int64(len(entries)),
				Description:   "failed payout still holds claimed entries",
			}
		}
		return nil
	}

	if assigned != payout.AmountMinor || int64(payout.LedgerCount) != int64(len(entries)) {
		return &Violation{
			PayoutID:      payout.ID,
			Status:        payout.Status,
			ExpectedMinor: payout.AmountMinor,
			AssignedMinor: assigned,
			AssignedCount: int64(len(entries)),
			Description:   "assigned entry sum does not match payout amount",
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	filter := ListFilter{Limit: input.Limit}
	if strings.TrimSpace(input.Status) != "" {
		status, err := enums.ParsePayoutStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = status
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor

	payouts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}

	result := &ListResult{}
	limit := pagination.NormalizeLimit(input.Limit)
	if len(payouts) > limit {
		payouts = payouts[:limit]
		last := payouts[len(payouts)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	result.Payouts = payouts
	return result, nil
}

func (s *service) Get(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	payout, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	return payout, nil
}

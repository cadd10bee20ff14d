package analytics

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/money"
)

// Window bounds a summary query. From is inclusive, To exclusive.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CurrencyBucket is a per-currency aggregate with a display amount.
type CurrencyBucket struct {
	Count       int64  `json:"count"`
	AmountMinor int64  `json:"amount_minor"`
	Amount      string `json:"amount"`
}

// Summary is the aggregate view of ledger entries inside a window.
type Summary struct {
	Window      Window                    `json:"window"`
	Count       int64                     `json:"count"`
	GrossMinor  int64                     `json:"gross_minor"`
	ByStatus    map[string]Bucket         `json:"by_status"`
	ByStream    map[string]Bucket         `json:"by_stream"`
	ByCurrency  map[string]CurrencyBucket `json:"by_currency"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// Service provides revenue reports over the ledger.
type Service interface {
	// Summarize aggregates entries recorded inside the window. All reads run
	// in one transaction so the counts and sums describe the same snapshot.
	Summarize(ctx context.Context, window Window) (*Summary, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an analytics service over the ledger tables.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Summarize(ctx context.Context, window Window) (*Summary, error) {
	if window.From.IsZero() || window.To.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window from and to are required")
	}
	if !window.To.After(window.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window to must be after from")
	}

	summary := &Summary{
		Window:     window,
		ByStatus:   map[string]Bucket{},
		ByStream:   map[string]Bucket{},
		ByCurrency: map[string]CurrencyBucket{},
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		count, gross, err := repo.Totals(ctx, window.From, window.To)
		if err != nil {
			return err
		}
		summary.Count = count
		summary.GrossMinor = gross

		byStatus, err := repo.GroupByStatus(ctx, window.From, window.To)
		if err != nil {
			return err
		}
		for _, bucket := range byStatus {
			summary.ByStatus[bucket.Key] = bucket
		}

		byStream, err := repo.GroupByStream(ctx, window.From, window.To)
		if err != nil {
			return err
		}
		for _, bucket := range byStream {
			summary.ByStream[bucket.Key] = bucket
		}

		byCurrency, err := repo.GroupByCurrency(ctx, window.From, window.To)
		if err != nil {
			return err
		}
		for _, bucket := range byCurrency {
			summary.ByCurrency[bucket.Key] = CurrencyBucket{
				Count:       bucket.Count,
				AmountMinor: bucket.AmountMinor,
				Amount:      money.FormatMinor(bucket.AmountMinor, enums.Currency(bucket.Key)),
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize ledger")
	}

	summary.GeneratedAt = time.Now().UTC()
	return summary, nil
}

package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/zenartworks/revenue-backend/internal/payouts"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	"github.com/zenartworks/revenue-backend/pkg/logger"
	"github.com/zenartworks/revenue-backend/pkg/metrics"
)

type sweeper interface {
	Sweep(ctx context.Context, input payouts.SweepInput) (*payouts.SweepResult, error)
}

// SweepJobParams configure the payout sweep job.
type SweepJobParams struct {
	Logger      *logger.Logger
	Payouts     sweeper
	Destination string
	Currencies  []enums.Currency
	Metrics     *metrics.JobMetrics
}

// NewSweepJob builds the job that sweeps cleared entries into payouts, one
// sweep per configured currency.
func NewSweepJob(params SweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout service required")
	}
	if params.Destination == "" {
		return nil, fmt.Errorf("destination required")
	}
	if len(params.Currencies) == 0 {
		return nil, fmt.Errorf("at least one currency required")
	}
	return &sweepJob{
		logg:        params.Logger,
		payouts:     params.Payouts,
		destination: params.Destination,
		currencies:  params.Currencies,
		metrics:     params.Metrics,
	}, nil
}

type sweepJob struct {
	logg        *logger.Logger
	payouts     sweeper
	destination string
	currencies  []enums.Currency
	metrics     *metrics.JobMetrics
}

func (j *sweepJob) Name() string { return "payout-sweep" }

func (j *sweepJob) Run(ctx context.Context) error {
	var errs error
	for _, currency := range j.currencies {
		result, err := j.payouts.Sweep(ctx, payouts.SweepInput{
			Destination: j.destination,
			Currency:    currency,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sweep %s: %w", currency, err))
			continue
		}
		if !result.Swept {
			logCtx := j.logg.WithField(ctx, "currency", currency.String())
			j.logg.Info(logCtx, "no eligible funds to sweep")
			continue
		}
		if j.metrics != nil {
			j.metrics.AddProcessed(j.Name(), result.Payout.LedgerCount)
		}
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"currency":     currency.String(),
			"payout_id":    result.Payout.ID.String(),
			"amount_minor": result.Payout.AmountMinor,
			"ledger_count": result.Payout.LedgerCount,
		})
		j.logg.Info(logCtx, "sweep created payout")
	}
	return errs
}

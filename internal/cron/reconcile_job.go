package cron

import (
	"context"
	"fmt"

	"github.com/zenartworks/revenue-backend/internal/payouts"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

type reconciler interface {
	Reconcile(ctx context.Context, limit int) (*payouts.ReconcileReport, error)
}

// ReconcileJobParams configure the conservation check job.
type ReconcileJobParams struct {
	Logger  *logger.Logger
	Payouts reconciler
	Limit   int
}

// NewReconcileJob builds the job that verifies every payout amount against
// the sum of its assigned ledger entries.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout service required")
	}
	return &reconcileJob{
		logg:    params.Logger,
		payouts: params.Payouts,
		limit:   params.Limit,
	}, nil
}

type reconcileJob struct {
	logg    *logger.Logger
	payouts reconciler
	limit   int
}

func (j *reconcileJob) Name() string { return "ledger-reconcile" }

func (j *reconcileJob) Run(ctx context.Context) error {
	report, err := j.payouts.Reconcile(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "payouts_checked", report.Checked)
	j.logg.Info(logCtx, "ledger reconciliation clean")
	return nil
}

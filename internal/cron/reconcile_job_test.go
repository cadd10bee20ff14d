package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/zenartworks/revenue-backend/internal/payouts"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

type fakeReconciler struct {
	report *payouts.ReconcileReport
	err    error
	limit  int
}

func (f *fakeReconciler) Reconcile(ctx context.Context, limit int) (*payouts.ReconcileReport, error) {
	f.limit = limit
	return f.report, f.err
}

func TestReconcileJobPassesOnCleanLedger(t *testing.T) {
	reconciler := &fakeReconciler{report: &payouts.ReconcileReport{Checked: 12}}
	job, err := NewReconcileJob(ReconcileJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Payouts: reconciler,
		Limit:   500,
	})
	if err != nil {
		t.Fatalf("NewReconcileJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reconciler.limit != 500 {
		t.Fatalf("expected limit 500, got %d", reconciler.limit)
	}
}

func TestReconcileJobSurfacesViolations(t *testing.T) {
	reconciler := &fakeReconciler{
		report: &payouts.ReconcileReport{Checked: 3},
		err:    errors.New("payout amount drift"),
	}
	job, err := NewReconcileJob(ReconcileJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Payouts: reconciler,
	})
	if err != nil {
		t.Fatalf("NewReconcileJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error for violations")
	}
}

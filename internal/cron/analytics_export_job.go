package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/zenartworks/revenue-backend/internal/analytics"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

const defaultExportWindow = 24 * time.Hour

type summarizer interface {
	Summarize(ctx context.Context, window analytics.Window) (*analytics.Summary, error)
}

type snapshotWriter interface {
	Write(ctx context.Context, row *analytics.SnapshotRow) error
}

// AnalyticsExportJobParams configure the snapshot export job.
type AnalyticsExportJobParams struct {
	Logger    *logger.Logger
	Analytics summarizer
	Writer    snapshotWriter
	Window    time.Duration
}

// NewAnalyticsExportJob builds the job that exports a ledger summary snapshot
// to BigQuery for the trailing window.
func NewAnalyticsExportJob(params AnalyticsExportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Analytics == nil {
		return nil, fmt.Errorf("analytics service required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("snapshot writer required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultExportWindow
	}
	return &analyticsExportJob{
		logg:      params.Logger,
		analytics: params.Analytics,
		writer:    params.Writer,
		window:    window,
		now:       time.Now,
	}, nil
}

type analyticsExportJob struct {
	logg      *logger.Logger
	analytics summarizer
	writer    snapshotWriter
	window    time.Duration
	now       func() time.Time
}

func (j *analyticsExportJob) Name() string { return "analytics-export" }

func (j *analyticsExportJob) Run(ctx context.Context) error {
	to := j.now().UTC()
	window := analytics.Window{From: to.Add(-j.window), To: to}

	summary, err := j.analytics.Summarize(ctx, window)
	if err != nil {
		return fmt.Errorf("summarize window: %w", err)
	}
	row, err := analytics.BuildSnapshotRow(summary)
	if err != nil {
		return fmt.Errorf("build snapshot row: %w", err)
	}
	if err := j.writer.Write(ctx, row); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"snapshot_id": row.SnapshotID,
		"entry_count": summary.Count,
		"gross_minor": summary.GrossMinor,
	})
	j.logg.Info(logCtx, "ledger snapshot exported")
	return nil
}

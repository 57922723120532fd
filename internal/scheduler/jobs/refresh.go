package jobs

import (
	"context"
	"fmt"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/catalog"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/external/yahoo"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/ingest"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// refreshPeriod covers enough history to fill gaps after missed runs.
const refreshPeriod = "2y"

// RefreshJob runs the full catalog refresh every day after the US close.
type RefreshJob struct {
	runner  *ingest.Runner
	catalog *catalog.Catalog
	logger  *logger.Logger
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(runner *ingest.Runner, cat *catalog.Catalog, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		runner:  runner,
		catalog: cat,
		logger:  log,
	}
}

// Name returns the job name.
func (j *RefreshJob) Name() string {
	return "price_refresh"
}

// Schedule returns the cron schedule (22:30 UTC daily).
func (j *RefreshJob) Schedule() string {
	return "0 30 22 * * *"
}

// Run executes the full refresh.
func (j *RefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled price refresh")

	summary, err := j.runner.Run(ctx, j.catalog, yahoo.Period(refreshPeriod))
	if err != nil {
		return fmt.Errorf("price refresh: %w", err)
	}

	if failed := summary.FailedInstruments(); len(failed) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"run_id":  summary.RunID,
			"symbols": failed,
		}).Warn("Some instruments failed to refresh")
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":     summary.RunID,
		"inserted":   summary.TotalInserted(),
		"duplicates": summary.TotalDuplicates(),
		"total_bars": summary.TotalBars,
	}).Info("Scheduled price refresh completed")

	return nil
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/analysis"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// SignalJob materializes the daily opportunity snapshot for every active
// segment. It runs after the price refresh so signals reflect the
// freshest bars.
type SignalJob struct {
	reader *analysis.SegmentReader
	engine *analysis.Engine
	repo   *analysis.OpportunityRepository
	config *config.Config
	logger *logger.Logger
}

// NewSignalJob creates a new signal job.
func NewSignalJob(
	reader *analysis.SegmentReader,
	engine *analysis.Engine,
	repo *analysis.OpportunityRepository,
	cfg *config.Config,
	log *logger.Logger,
) *SignalJob {
	return &SignalJob{
		reader: reader,
		engine: engine,
		repo:   repo,
		config: cfg,
		logger: log,
	}
}

// Name returns the job name.
func (j *SignalJob) Name() string {
	return "signal_snapshot"
}

// Schedule returns the cron schedule (23:00 UTC daily, after the refresh).
func (j *SignalJob) Schedule() string {
	return "0 0 23 * * *"
}

// Run computes and persists opportunities for all active segments.
func (j *SignalJob) Run(ctx context.Context) error {
	segments, err := j.reader.ListActiveSegments(ctx)
	if err != nil {
		return fmt.Errorf("list segments: %w", err)
	}

	now := time.Now()
	persisted := 0
	for _, segment := range segments {
		metrics, err := j.engine.SegmentMetrics(ctx, segment.ID, j.config.MetricsWindowDays)
		if err != nil {
			return fmt.Errorf("metrics for segment %d: %w", segment.ID, err)
		}

		for _, opportunity := range analysis.GenerateOpportunities(segment.ID, metrics, now) {
			o := opportunity
			if err := j.repo.Insert(ctx, &o); err != nil {
				return fmt.Errorf("persist opportunity for segment %d: %w", segment.ID, err)
			}
			persisted++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"segments":      len(segments),
		"opportunities": persisted,
	}).Info("Signal snapshot completed")

	return nil
}

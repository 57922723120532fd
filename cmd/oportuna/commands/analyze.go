package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/analysis"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/database"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute segment metrics and opportunities",
	Long: `Computes trailing-window metrics for segments and derives advisory
opportunities from them. Without --persist the results are only
printed.

Example:
  go run ./cmd/oportuna analyze
  go run ./cmd/oportuna analyze --segment 3 --days 180
  go run ./cmd/oportuna analyze --persist`,
	RunE: runAnalyze,
}

var (
	analyzeSegment int64
	analyzeDays    int
	analyzePersist bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int64Var(&analyzeSegment, "segment", 0, "segment id (default: all active segments)")
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 0, "trailing window in days (default: METRICS_WINDOW_DAYS)")
	analyzeCmd.Flags().BoolVar(&analyzePersist, "persist", false, "store the generated opportunities")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	windowDays := cfg.MetricsWindowDays
	if analyzeDays > 0 {
		windowDays = analyzeDays
	}

	ctx := cmd.Context()
	reader := analysis.NewSegmentReader(db.Pool)
	engine := analysis.NewEngine(db.Pool, log)
	repo := analysis.NewOpportunityRepository(db.Pool)

	var segmentIDs []int64
	if analyzeSegment > 0 {
		segmentIDs = []int64{analyzeSegment}
	} else {
		segments, err := reader.ListActiveSegments(ctx)
		if err != nil {
			return fmt.Errorf("list segments: %w", err)
		}
		for _, s := range segments {
			segmentIDs = append(segmentIDs, s.ID)
		}
	}
	if len(segmentIDs) == 0 {
		fmt.Println("No segments to analyze. Run 'collect' first.")
		return nil
	}

	now := time.Now()
	for _, segmentID := range segmentIDs {
		metrics, err := engine.SegmentMetrics(ctx, segmentID, windowDays)
		if err != nil {
			return fmt.Errorf("metrics for segment %d: %w", segmentID, err)
		}

		printMetrics(segmentID, windowDays, metrics)

		for _, opportunity := range analysis.GenerateOpportunities(segmentID, metrics, now) {
			o := opportunity
			printOpportunity(o)
			if analyzePersist {
				if err := repo.Insert(ctx, &o); err != nil {
					return fmt.Errorf("persist opportunity for segment %d: %w", segmentID, err)
				}
				fmt.Printf("  persisted as opportunity #%d\n", o.ID)
			}
		}
	}

	return nil
}

func printMetrics(segmentID int64, windowDays int, m *contracts.SegmentMetrics) {
	fmt.Printf("\nSegment %d (window %dd)\n", segmentID, windowDays)
	if m == nil {
		fmt.Println("  no bars in window")
		return
	}
	fmt.Printf("  bars=%d mean_return=%.4f%% volatility=%.4f%%\n", m.BarCount, m.MeanReturn, m.MeanVolatility)
	fmt.Printf("  close range [%.2f, %.2f], total volume %d\n", m.MinClose, m.MaxClose, m.TotalVolume)
}

func printOpportunity(o contracts.Opportunity) {
	fmt.Printf("  signal: %s potential=%.2f%% risk=%s confidence=%.2f\n",
		o.Kind, o.PotentialReturnPct, o.RiskTier, o.Confidence)
}

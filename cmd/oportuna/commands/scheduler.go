package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/analysis"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/catalog"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/external/yahoo"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/ingest"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/scheduler"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/scheduler/jobs"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/database"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/httputil"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the daily refresh and signal jobs",
	Long: `Runs the background scheduler:
  price_refresh    - full catalog refresh, 22:30 UTC daily
  signal_snapshot  - opportunity materialization, 23:00 UTC daily

Example:
  go run ./cmd/oportuna scheduler
  go run ./cmd/oportuna scheduler --run-now price_refresh`,
	RunE: runScheduler,
}

var schedulerRunNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerRunNow, "run-now", "", "trigger a job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	cat, err := catalog.Load(catalogFile(cfg))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := ingest.Migrate(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	httpClient := httputil.New(log, cfg.Provider.Timeout)
	provider := yahoo.NewClient(httpClient, log, cfg.Provider)
	repo := ingest.NewRepository(db.Pool, log)
	runner := ingest.NewRunner(provider, repo, log)

	reader := analysis.NewSegmentReader(db.Pool)
	engine := analysis.NewEngine(db.Pool, log)
	opportunityRepo := analysis.NewOpportunityRepository(db.Pool)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewRefreshJob(runner, cat, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewSignalJob(reader, engine, opportunityRepo, cfg, log)); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow != "" {
		if err := sched.RunJob(schedulerRunNow); err != nil {
			return err
		}
	}

	fmt.Println("Scheduler running. Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}

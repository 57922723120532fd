package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/catalog"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/export"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/external/yahoo"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/ingest"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/database"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/httputil"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a full catalog refresh",
	Long: `Fetches daily bar history for every catalog instrument and appends
it to the store. Already-stored (instrument, date) pairs are skipped,
so re-running is safe.

Example:
  go run ./cmd/oportuna collect
  go run ./cmd/oportuna collect --period 5y
  go run ./cmd/oportuna collect --start 2020-01-01 --end 2024-12-31
  go run ./cmd/oportuna collect --backup bars.csv`,
	RunE: runCollect,
}

var (
	collectPeriod string
	collectStart  string
	collectEnd    string
	collectBackup string
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectPeriod, "period", "2y", "history period token (1y, 2y, 5y, max)")
	collectCmd.Flags().StringVar(&collectStart, "start", "", "history start date (YYYY-MM-DD, overrides --period)")
	collectCmd.Flags().StringVar(&collectEnd, "end", "", "history end date (YYYY-MM-DD, defaults to today)")
	collectCmd.Flags().StringVar(&collectBackup, "backup", "", "also mirror fetched bars to a CSV file")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	rng, err := historyRange()
	if err != nil {
		return err
	}

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

	if collectBackup != "" {
		sink, err := export.NewCSVWriter(collectBackup)
		if err != nil {
			return err
		}
		defer sink.Close()
		runner = runner.WithSink(sink)
	}

	summary, err := runner.Run(ctx, cat, rng)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	printSummary(summary)
	return nil
}

// historyRange builds the fetch range from the collect flags.
func historyRange() (yahoo.HistoryRange, error) {
	if collectStart == "" {
		return yahoo.Period(collectPeriod), nil
	}

	start, err := time.Parse("2006-01-02", collectStart)
	if err != nil {
		return yahoo.HistoryRange{}, fmt.Errorf("invalid --start date (expected YYYY-MM-DD): %w", err)
	}
	end := time.Now()
	if collectEnd != "" {
		end, err = time.Parse("2006-01-02", collectEnd)
		if err != nil {
			return yahoo.HistoryRange{}, fmt.Errorf("invalid --end date (expected YYYY-MM-DD): %w", err)
		}
	}
	return yahoo.Between(start, end), nil
}

func catalogFile(cfg *config.Config) string {
	if catalogPath != "" {
		return catalogPath
	}
	return cfg.CatalogPath
}

func printSummary(summary *contracts.RefreshSummary) {
	fmt.Println("\n=== Refresh Report ===")
	fmt.Printf("Run:      %s\n", summary.RunID)
	fmt.Printf("Period:   %s\n", summary.Period)
	fmt.Printf("Duration: %s\n\n", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))

	fmt.Printf("%-8s %8s %9s %11s %7s %7s  %s\n",
		"SYMBOL", "FETCHED", "INSERTED", "DUPLICATES", "FAILED", "STORED", "ERROR")
	for _, r := range summary.Instruments {
		fmt.Printf("%-8s %8d %9d %11d %7d %7d  %s\n",
			r.Symbol, r.Fetched, r.Inserted, r.Duplicates, r.Failed, r.StoredBars, r.Error)
	}

	fmt.Printf("\nTotals: inserted=%d duplicates=%d failed=%d\n",
		summary.TotalInserted(), summary.TotalDuplicates(), summary.TotalFailed())
	if summary.FirstDate != nil && summary.LastDate != nil {
		fmt.Printf("Store:  %d bars from %s to %s\n",
			summary.TotalBars,
			summary.FirstDate.Format("2006-01-02"),
			summary.LastDate.Format("2006-01-02"))
	}
	if failed := summary.FailedInstruments(); len(failed) > 0 {
		fmt.Printf("Failed instruments: %v\n", failed)
	}
}

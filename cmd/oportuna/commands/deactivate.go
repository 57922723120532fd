package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/ingest"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/database"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// deactivateCmd represents the deactivate command
var deactivateCmd = &cobra.Command{
	Use:   "deactivate [symbol]",
	Short: "Retire an instrument without deleting its bars",
	Long: `Marks an instrument inactive. Its stored bars are kept but it no
longer contributes to segment metrics or charts. Removing it from the
catalog stops future collection.

Example:
  go run ./cmd/oportuna deactivate ^RUT`,
	Args: cobra.ExactArgs(1),
	RunE: runDeactivate,
}

func init() {
	rootCmd.AddCommand(deactivateCmd)
}

func runDeactivate(cmd *cobra.Command, args []string) error {
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

	repo := ingest.NewRepository(db.Pool, log)
	if err := repo.DeactivateInstrument(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Printf("Instrument %s deactivated\n", args[0])
	return nil
}

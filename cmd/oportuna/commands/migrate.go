package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/ingest"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/database"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Applies the idempotent schema statements. Safe to run repeatedly;
the other commands also apply them on startup.

Example:
  go run ./cmd/oportuna migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
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

	if err := ingest.Migrate(cmd.Context(), db.Pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	log.Info("Schema migration completed")
	fmt.Println("Schema is up to date")
	return nil
}

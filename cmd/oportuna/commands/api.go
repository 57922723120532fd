package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/analysis"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/api"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/api/handlers"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/ingest"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/database"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the REST API server.

Endpoints:
  GET /health                        - Health check
  GET /api/segments                  - List segments
  GET /api/segments/{id}             - Segment detail with signals
  GET /api/segments/{id}/metrics     - Trailing-window metrics
  GET /api/segments/{id}/chart       - Close series for plotting
  GET /api/dashboard                 - Metrics overview for all segments
  GET /api/opportunities             - Persisted opportunity history
  GET /api/opportunities?segment=N   - History for one segment

Example:
  go run ./cmd/oportuna api
  go run ./cmd/oportuna api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := ingest.Migrate(cmd.Context(), db.Pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "oportuna")

	reader := analysis.NewSegmentReader(db.Pool)
	engine := analysis.NewEngine(db.Pool, log)
	opportunityRepo := analysis.NewOpportunityRepository(db.Pool)

	segmentHandler := handlers.NewSegmentHandler(reader, engine, cache, cfg, log)
	opportunityHandler := handlers.NewOpportunityHandler(opportunityRepo, log)

	router := api.NewRouter(segmentHandler, opportunityHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

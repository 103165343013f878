package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"dendrosim/adapters/excel"
	"dendrosim/adapters/postgres"
	"dendrosim/adapters/rng"
	"dendrosim/domain/series"
	"dendrosim/internal"
	"dendrosim/internal/config"
	"dendrosim/internal/simulation"
	"dendrosim/internal/testkit"
	"dendrosim/ports"
	"dendrosim/ui"
)

func main() {
	// .env is optional; environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger := internal.NewDefaultLogger()

	climate, err := loadClimate(cfg, logger)
	if err != nil {
		log.Fatalf("failed to load climate matrix: %v", err)
	}

	var repo ports.RunRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to run archive: %v", err)
		}
		defer db.Close()

		runRepo := postgres.NewRunRepository(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := runRepo.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("failed to prepare run archive schema: %v", err)
		}
		cancel()
		repo = runRepo
		logger.Info("run archive enabled")
	} else {
		logger.Info("no DATABASE_URL set, run archive disabled")
	}

	orchestrator := simulation.NewOrchestrator(rng.NewStreamAdapter(), logger)
	server := ui.NewServer(ui.Config{MaxConcurrentRuns: cfg.Server.MaxConcurrentRuns}, orchestrator, climate, repo, logger)

	addr := ":" + cfg.Server.Port
	logger.Info("listening on %s (climate: %d years x %d months)", addr, climate.Years, climate.Months)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// loadClimate reads the configured climate file, or falls back to a
// synthetic standardized matrix for experimentation.
func loadClimate(cfg *config.Config, logger *internal.Logger) (*series.Matrix, error) {
	if cfg.Paths.ClimateFile != "" {
		logger.Info("loading climate matrix from %s", cfg.Paths.ClimateFile)
		return excel.NewClimateReader(cfg.Paths.ClimateFile).ReadMatrix()
	}
	logger.Warn("no CLIMATE_FILE set, using synthetic climate (100 years x 12 months)")
	return testkit.SyntheticClimate(rand.New(rand.NewSource(cfg.Simulation.Seed)), 100, 12)
}

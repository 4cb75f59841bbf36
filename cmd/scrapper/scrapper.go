package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/abelzeko/reservoir-scraper/internal/config"
	"github.com/abelzeko/reservoir-scraper/internal/integration"
	"github.com/abelzeko/reservoir-scraper/internal/logging"
	"github.com/abelzeko/reservoir-scraper/internal/repository"
	"github.com/abelzeko/reservoir-scraper/internal/usecases"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("Starting reservoir scraper", zap.String("source_url", cfg.SourceURL))

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Scrape run failed", zap.Error(err))
		logging.Flush(logger)
		os.Exit(1)
	}
	logging.Flush(logger)
}

// run performs one fetch → extract → save pass
func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize repository
	repo, err := repository.NewSQLiteObservationRepository(ctx, cfg.DBPath, cfg.TableName, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	// Initialize scraper
	fetcher := integration.NewCollyFetcher(integration.FetcherConfig{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
	}, logger)
	scraper := integration.NewReservoirScraper(cfg.SourceURL, fetcher, integration.NewExtractor(loc, logger), logger)

	useCase := usecases.NewObservationUseCase(repo, scraper, logger)
	res, err := useCase.RefreshObservation(ctx)
	if err != nil {
		return err
	}

	switch {
	case res.Empty:
		logger.Warn("Page held no observation")
	case res.Inserted:
		logger.Info("Stored new observation", zap.Int64("time", res.Observation.Time))
	default:
		logger.Info("Observation already stored", zap.Int64("time", res.Observation.Time))
	}
	return nil
}

// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abelzeko/reservoir-scraper/internal/entities"
	"github.com/abelzeko/reservoir-scraper/internal/repository"
)

// ValueSource produces the ordered value sequence scraped from the status page
type ValueSource interface {
	FetchValues(ctx context.Context) ([]entities.Value, error)
}

// RefreshResult describes what a single refresh did
type RefreshResult struct {
	Observation entities.Observation
	Inserted    bool // a new row was written
	Empty       bool // the page held no data block, nothing was saved
}

// ObservationUseCase handles business logic related to reservoir observations
type ObservationUseCase struct {
	repo   repository.ObservationRepository
	source ValueSource
	logger *zap.Logger
}

// NewObservationUseCase creates a new observation use case
func NewObservationUseCase(repo repository.ObservationRepository, source ValueSource, logger *zap.Logger) *ObservationUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObservationUseCase{
		repo:   repo,
		source: source,
		logger: logger,
	}
}

// RefreshObservation fetches the status page once and stores its observation
// unless one with the same time is already stored
func (uc *ObservationUseCase) RefreshObservation(ctx context.Context) (RefreshResult, error) {
	uc.logger.Info("starting observation refresh")

	values, err := uc.source.FetchValues(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to fetch reservoir data: %w", err)
	}

	if len(values) == 0 {
		uc.logger.Warn("no observation found on page, nothing saved")
		return RefreshResult{Empty: true}, nil
	}

	if len(values) != entities.ObservationArity {
		return RefreshResult{}, fmt.Errorf("%w: page yielded %d values, want %d", entities.ErrExtractionArity, len(values), entities.ObservationArity)
	}

	obs, err := entities.NewObservation(values)
	if err != nil {
		return RefreshResult{}, err
	}

	inserted, err := uc.repo.SaveObservation(ctx, obs)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to save observation: %w", err)
	}

	uc.logger.Info("observation refresh finished",
		zap.Time("observed_at", obs.Timestamp()),
		zap.Bool("inserted", inserted))
	return RefreshResult{Observation: obs, Inserted: inserted}, nil
}

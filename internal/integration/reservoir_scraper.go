// Package integration handles external service interactions
package integration

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"github.com/abelzeko/reservoir-scraper/internal/entities"
)

// ReservoirScraper retrieves the reservoir status page and extracts its values
type ReservoirScraper struct {
	sourceURL string
	fetcher   PageFetcher
	extractor *Extractor
	logger    *zap.Logger
}

// NewReservoirScraper creates a new reservoir page scraper
func NewReservoirScraper(url string, fetcher PageFetcher, extractor *Extractor, logger *zap.Logger) *ReservoirScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = NewExtractor(nil, logger)
	}
	return &ReservoirScraper{
		sourceURL: url,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
	}
}

// SourceURL returns the page being scraped
func (rs *ReservoirScraper) SourceURL() string {
	return rs.sourceURL
}

// FetchValues downloads the status page and returns the extracted value sequence
func (rs *ReservoirScraper) FetchValues(ctx context.Context) ([]entities.Value, error) {
	body, err := rs.fetcher.Fetch(ctx, rs.sourceURL)
	if err != nil {
		return nil, err
	}

	nodes, err := ParseTextNodes(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	rs.logger.Debug("parsed page", zap.Int("text_nodes", len(nodes)))

	values, err := rs.extractor.Extract(nodes)
	if err != nil {
		return nil, err
	}
	rs.logger.Info("extracted values from page", zap.Int("values", len(values)))
	return values, nil
}

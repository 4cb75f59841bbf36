package integration

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"go.uber.org/zap"

	"github.com/abelzeko/reservoir-scraper/internal/entities"
)

const defaultRequestTimeout = 30 * time.Second

// PageFetcher retrieves the raw bytes of a page
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherConfig controls how the status page is requested
type FetcherConfig struct {
	// UserAgent pins the header; empty means a random browser agent per request
	UserAgent string
	Timeout   time.Duration
}

// CollyFetcher implements PageFetcher with a single synchronous colly visit
type CollyFetcher struct {
	cfg    FetcherConfig
	logger *zap.Logger
}

// NewCollyFetcher creates a fetcher
func NewCollyFetcher(cfg FetcherConfig, logger *zap.Logger) *CollyFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollyFetcher{cfg: cfg, logger: logger}
}

// Fetch performs one GET. Anything other than 200 OK is an ErrNetwork.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		fetchErr error
	)
	c := f.newCollector(ctx)

	c.OnRequest(func(r *colly.Request) {
		f.logger.Debug("sending request",
			zap.String("url", r.URL.String()),
			zap.String("user_agent", r.Headers.Get("User-Agent")))
	})

	c.OnResponse(func(r *colly.Response) {
		// colly hands 201 and 202 to OnResponse as well
		if r.StatusCode != http.StatusOK {
			fetchErr = fmt.Errorf("%w: unexpected status code: %d %s", entities.ErrNetwork, r.StatusCode, http.StatusText(r.StatusCode))
			return
		}
		body = append([]byte(nil), r.Body...)
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("%w: request failed with status %d: %w", entities.ErrNetwork, status, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- c.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: fetch canceled: %w", entities.ErrNetwork, ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			f.logger.Error("fetch failed", zap.String("url", url), zap.Error(fetchErr))
			return nil, fetchErr
		}
		if err != nil {
			f.logger.Error("fetch failed", zap.String("url", url), zap.Error(err))
			return nil, fmt.Errorf("%w: failed to fetch the webpage: %w", entities.ErrNetwork, err)
		}
	}

	f.logger.Info("fetched page", zap.String("url", url), zap.Int("bytes", len(body)))
	return body, nil
}

func (f *CollyFetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.cfg.Timeout)
	if f.cfg.UserAgent != "" {
		c.UserAgent = f.cfg.UserAgent
	} else {
		extensions.RandomUserAgent(c)
	}
	return c
}

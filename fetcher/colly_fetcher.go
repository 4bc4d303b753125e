package fetcher

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyFetcher implements the Fetcher interface using colly
type CollyFetcher struct {
	collector *colly.Collector
	logger    *slog.Logger
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(userAgent string, logger *slog.Logger) *CollyFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		// Re-downloading a page overwrites the saved copy
		colly.AllowURLRevisit(),
		// Pages are saved byte-for-byte, so the body is never truncated
		colly.MaxBodySize(0),
	)

	return &CollyFetcher{
		collector: c,
		logger:    logger,
	}
}

// Fetch implements the Fetcher interface
func (cf *CollyFetcher) Fetch(url, dest string) error {
	// Clone per call so callbacks don't pile up on the shared collector
	c := cf.collector.Clone()

	var saveErr error
	reported := false

	c.OnResponse(func(r *colly.Response) {
		// colly lets 201 and 202 through; only 200 counts as a download
		if r.StatusCode != http.StatusOK {
			cf.logger.Warn("failed to download page", "url", url, "status", r.StatusCode)
			reported = true
			return
		}
		if err := r.Save(dest); err != nil {
			saveErr = fmt.Errorf("failed to save %s: %w", dest, err)
			return
		}
		cf.logger.Info("page saved", "url", url, "path", dest, "bytes", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		cf.logger.Warn("failed to download page", "url", url, "status", r.StatusCode, "error", err)
		reported = true
	})

	if err := c.Visit(url); err != nil && !reported {
		cf.logger.Warn("failed to download page", "url", url, "error", err)
	}

	return saveErr
}

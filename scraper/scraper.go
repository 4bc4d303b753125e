package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quotes-scraper/csvout"
	"quotes-scraper/db"
	"quotes-scraper/fetcher"
	"quotes-scraper/filter"
	"quotes-scraper/models"
	"quotes-scraper/parser"
)

// Store persists runs and their quotes
type Store interface {
	CreateRun(baseURL string, pages int) (int, error)
	UpdateRunStatus(runID int, status string) error
	FailRun(runID int, runErr error) error
	SaveQuotes(runID int, quotes []models.Quote) error
}

// SheetExporter writes quotes to a new spreadsheet tab
type SheetExporter interface {
	CreateSheetAndWriteQuotes(ctx context.Context, sheetName string, quotes []models.Quote, sourceURL string) (string, int64, error)
}

// Options describes one scrape-and-save run
type Options struct {
	BaseURL  string
	PagesDir string
	CSVFile  string
	Pages    int
}

// Result summarizes a finished run
type Result struct {
	RunID     int // 0 without a store
	Pages     int
	Extracted int
	Written   int
	SheetName string
}

// Scraper downloads listing pages, extracts their quotes and saves them
type Scraper struct {
	fetcher fetcher.Fetcher
	filter  *filter.Filter
	store   Store
	sheets  SheetExporter
	logger  *slog.Logger
}

// NewScraper creates a Scraper. filter may be nil.
func NewScraper(f fetcher.Fetcher, flt *filter.Filter, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		fetcher: f,
		filter:  flt,
		logger:  logger,
	}
}

// SetStore records every run in store
func (s *Scraper) SetStore(store Store) {
	s.store = store
}

// SetSheets exports every written dataset through exporter
func (s *Scraper) SetSheets(exporter SheetExporter) {
	s.sheets = exporter
}

// Run downloads the pages, extracts every saved page in PagesDir and writes the CSV.
// Pages that fail to download are skipped; an empty dataset fails the run.
func (s *Scraper) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{Pages: opts.Pages}

	if s.store != nil {
		runID, err := s.store.CreateRun(opts.BaseURL, opts.Pages)
		if err != nil {
			return nil, err
		}
		result.RunID = runID
		if err := s.store.UpdateRunStatus(runID, db.StatusInProgress); err != nil {
			s.failRun(runID, err)
			return nil, err
		}
	}

	quotes, err := s.collect(opts, result)
	if err == nil {
		err = csvout.WriteFile(quotes, opts.CSVFile)
	}
	if err != nil {
		s.failRun(result.RunID, err)
		return nil, err
	}
	result.Written = len(quotes)
	s.logger.Info("data saved", "path", opts.CSVFile, "records", len(quotes))

	if s.store != nil {
		if err := s.store.SaveQuotes(result.RunID, quotes); err != nil {
			s.failRun(result.RunID, err)
			return nil, err
		}
	}

	if s.sheets != nil {
		sheetName := fmt.Sprintf("Quotes_%s", time.Now().Format("20060102_150405"))
		name, _, err := s.sheets.CreateSheetAndWriteQuotes(ctx, sheetName, quotes, opts.BaseURL)
		if err != nil {
			s.logger.Warn("failed to write to Google Sheets", "error", err)
		} else {
			result.SheetName = name
		}
	}

	return result, nil
}

// collect runs the download and extraction phases
func (s *Scraper) collect(opts Options, result *Result) ([]models.Quote, error) {
	s.logger.Info("downloading pages", "base_url", opts.BaseURL, "pages", opts.Pages, "dir", opts.PagesDir)
	if err := fetcher.DownloadPages(s.fetcher, opts.BaseURL, opts.PagesDir, opts.Pages); err != nil {
		return nil, err
	}

	quotes, err := parser.ProcessDir(opts.PagesDir)
	if err != nil {
		return nil, err
	}
	result.Extracted = len(quotes)
	s.logger.Info("extracted quotes", "dir", opts.PagesDir, "records", len(quotes))

	if s.filter != nil && s.filter.Active() {
		quotes = s.filter.ApplyFilters(quotes)
		s.logger.Info("applied filters", "kept", len(quotes), "dropped", result.Extracted-len(quotes))
	}

	return quotes, nil
}

func (s *Scraper) failRun(runID int, runErr error) {
	if s.store == nil {
		return
	}
	if err := s.store.FailRun(runID, runErr); err != nil {
		s.logger.Warn("failed to record run failure", "run_id", runID, "error", err)
	}
}

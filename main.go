package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"quotes-scraper/config"
	"quotes-scraper/csvout"
	"quotes-scraper/db"
	"quotes-scraper/fetcher"
	"quotes-scraper/filter"
	"quotes-scraper/parser"
	"quotes-scraper/scraper"
	"quotes-scraper/sheets"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	baseURL        string
	pagesDir       string
	csvFile        string
	maxPages       int
	spreadsheetURL string
	databaseURL    string
	debugMode      bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "quotes-scraper",
	Short: "Download quote listing pages and save their quotes to CSV",
	Long: `Downloads the paginated listing pages of a quotes website, extracts
quote, author and tags from every saved page and writes them to a CSV file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if debugMode {
			level = slog.LevelDebug
		}
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
		slog.SetDefault(logger)

		var err error
		cfg, err = loadConfig(cmd)
		return err
	},
	RunE: runScrape,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Download pages, extract quotes and write the CSV",
	RunE:  runScrape,
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Only download the listing pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fetcher.NewCollyFetcher(cfg.UserAgent, logger)
		return fetcher.DownloadPages(f, cfg.BaseURL, cfg.PagesDir, cfg.Pages)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract quotes from already downloaded pages into the CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		quotes, err := parser.ProcessDir(cfg.PagesDir)
		if err != nil {
			return err
		}
		quotes = filter.NewFilter(cfg).ApplyFilters(quotes)
		if err := csvout.WriteFile(quotes, cfg.CSVFile); err != nil {
			return err
		}
		logger.Info("data saved", "path", cfg.CSVFile, "records", len(quotes))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flags.StringVar(&baseURL, "url", "", "Base URL of the quotes site")
	flags.StringVar(&pagesDir, "dir", "", "Directory the HTML pages are saved to and read from")
	flags.StringVar(&csvFile, "csv", "", "Path of the CSV file to write")
	flags.IntVar(&maxPages, "pages", 0, "Number of pages to download")
	flags.StringVar(&spreadsheetURL, "spreadsheet", "", "Google Sheets URL to export the quotes to")
	flags.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string to record runs in")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd, downloadCmd, extractCmd)
}

// loadConfig reads the config file and applies flags that were set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.LoadConfigOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		c.BaseURL = baseURL
	}
	if flags.Changed("dir") {
		c.PagesDir = pagesDir
	}
	if flags.Changed("csv") {
		c.CSVFile = csvFile
	}
	if flags.Changed("pages") {
		c.Pages = maxPages
	}
	if flags.Changed("spreadsheet") {
		c.Sheets.SpreadsheetURL = spreadsheetURL
	}
	if flags.Changed("database-url") {
		c.Database.URL = databaseURL
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s := scraper.NewScraper(
		fetcher.NewCollyFetcher(cfg.UserAgent, logger),
		filter.NewFilter(cfg),
		logger,
	)

	if cfg.Database.URL != "" || db.EnvConfigured() {
		database, err := db.NewDB(cfg.Database.URL, logger)
		if err != nil {
			return err
		}
		defer database.Close()
		s.SetStore(database)
	}

	if cfg.Sheets.SpreadsheetURL != "" {
		spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL)
		if spreadsheetID == "" {
			logger.Warn("could not extract spreadsheet ID from URL", "url", cfg.Sheets.SpreadsheetURL)
		} else if writer, err := sheets.NewWriter(ctx, spreadsheetID, cfg.Sheets.Credentials, logger); err != nil {
			logger.Warn("failed to initialize Google Sheets writer", "error", err)
		} else {
			s.SetSheets(writer)
		}
	}

	result, err := s.Run(ctx, scraper.Options{
		BaseURL:  cfg.BaseURL,
		PagesDir: cfg.PagesDir,
		CSVFile:  cfg.CSVFile,
		Pages:    cfg.Pages,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Data saved to %s (%d quotes from %d pages)\n", cfg.CSVFile, result.Written, result.Pages)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

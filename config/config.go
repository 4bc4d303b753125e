package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults used when the config file leaves a value unset
const (
	DefaultBaseURL  = "https://quotes.toscrape.com"
	DefaultPages    = 10
	DefaultPagesDir = "."
	DefaultCSVFile  = "quotes.csv"
)

// Config represents the scraper configuration
type Config struct {
	BaseURL   string `yaml:"base_url"`
	Pages     int    `yaml:"pages"`
	PagesDir  string `yaml:"pages_dir"`
	CSVFile   string `yaml:"csv_file"`
	UserAgent string `yaml:"user_agent"`
	Filters   struct {
		Authors []string `yaml:"authors"`
		Tags    []string `yaml:"tags"`
	} `yaml:"filters"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Sheets struct {
		SpreadsheetURL string `yaml:"spreadsheet_url"`
		Credentials    string `yaml:"credentials"`
	} `yaml:"sheets"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadConfigOrDefault loads path, falling back to the defaults when it doesn't exist
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = GetDefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		Pages:    DefaultPages,
		PagesDir: DefaultPagesDir,
		CSVFile:  DefaultCSVFile,
	}
}

// applyEnv fills values that are only set through the environment
func (c *Config) applyEnv() {
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DATABASE_URL")
	}
}

// Validate checks the values the pipeline can't run without
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.Pages < 0 {
		return fmt.Errorf("pages must not be negative, got %d", c.Pages)
	}
	if c.CSVFile == "" {
		return errors.New("csv_file is required")
	}
	return nil
}

package filter

import (
	"strings"

	"quotes-scraper/config"
	"quotes-scraper/models"
)

// Filter applies filter criteria to quotes
type Filter struct {
	authors map[string]bool
	tags    map[string]bool
}

// NewFilter creates a new Filter instance
func NewFilter(cfg *config.Config) *Filter {
	f := &Filter{
		authors: make(map[string]bool),
		tags:    make(map[string]bool),
	}
	for _, a := range cfg.Filters.Authors {
		f.authors[normalize(a)] = true
	}
	for _, t := range cfg.Filters.Tags {
		f.tags[normalize(t)] = true
	}
	return f
}

// Active reports whether any criteria are set
func (f *Filter) Active() bool {
	return len(f.authors) > 0 || len(f.tags) > 0
}

// ApplyFilters filters quotes based on the configuration, keeping their order
func (f *Filter) ApplyFilters(quotes []models.Quote) []models.Quote {
	if !f.Active() {
		return quotes
	}

	var filtered []models.Quote
	for _, q := range quotes {
		if f.matchesFilters(q) {
			filtered = append(filtered, q)
		}
	}

	return filtered
}

// matchesFilters checks if a quote matches all filter criteria
func (f *Filter) matchesFilters(q models.Quote) bool {
	if len(f.authors) > 0 && !f.authors[normalize(q.Author)] {
		return false
	}

	// Any one matching tag is enough
	if len(f.tags) > 0 {
		for _, tag := range q.Tags {
			if f.tags[normalize(tag)] {
				return true
			}
		}
		return false
	}

	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

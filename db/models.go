package db

import (
	"database/sql"
	"fmt"
	"time"

	"quotes-scraper/models"

	"github.com/lib/pq"
)

// Run statuses
const (
	StatusCreated    = "created"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Run represents one scrape-and-save execution
type Run struct {
	ID          int
	BaseURL     string
	PagesCount  int
	Status      string // "created", "in_progress", "done", "failed"
	QuotesCount int
	LastError   sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateRun records a new run and returns its ID
func (db *DB) CreateRun(baseURL string, pages int) (int, error) {
	var id int
	err := db.conn.QueryRow(`
		INSERT INTO runs (base_url, pages_count, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, baseURL, pages, StatusCreated).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// UpdateRunStatus updates the status of a run
func (db *DB) UpdateRunStatus(runID int, status string) error {
	_, err := db.conn.Exec(`
		UPDATE runs
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, status, runID)
	if err != nil {
		return fmt.Errorf("failed to update run %d status: %w", runID, err)
	}
	return nil
}

// FailRun marks a run as failed and keeps the error message
func (db *DB) FailRun(runID int, runErr error) error {
	_, err := db.conn.Exec(`
		UPDATE runs
		SET status = $1, last_error = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`, StatusFailed, runErr.Error(), runID)
	if err != nil {
		return fmt.Errorf("failed to mark run %d failed: %w", runID, err)
	}
	return nil
}

// SaveQuotes stores the quotes of a run in one transaction and marks the run done
func (db *DB) SaveQuotes(runID int, quotes []models.Quote) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO quotes (run_id, position, quote, author, tags)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, q := range quotes {
		tags := q.Tags
		if tags == nil {
			tags = []string{}
		}
		if _, err := stmt.Exec(runID, i, q.Quote, q.Author, pq.Array(tags)); err != nil {
			return fmt.Errorf("failed to insert quote %d: %w", i, err)
		}
	}

	_, err = tx.Exec(`
		UPDATE runs
		SET status = $1, quotes_count = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`, StatusDone, len(quotes), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(runID int) (*Run, error) {
	var r Run
	err := db.conn.QueryRow(`
		SELECT id, base_url, pages_count, status, quotes_count, last_error, created_at, updated_at
		FROM runs
		WHERE id = $1
	`, runID).Scan(
		&r.ID, &r.BaseURL, &r.PagesCount, &r.Status, &r.QuotesCount,
		&r.LastError, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRunQuotes returns the quotes saved for a run in their original order
func (db *DB) GetRunQuotes(runID int) ([]models.Quote, error) {
	rows, err := db.conn.Query(`
		SELECT quote, author, tags
		FROM quotes
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		var q models.Quote
		if err := rows.Scan(&q.Quote, &q.Author, pq.Array(&q.Tags)); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"quotes-scraper/csvout"
	"quotes-scraper/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const maxSheetNameLen = 100

// Writer handles writing quotes to Google Sheets
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewWriter creates a new Google Sheets writer authenticated with a service account
func NewWriter(ctx context.Context, spreadsheetID string, credentialsPath string, logger *slog.Logger) (*Writer, error) {
	credsJSON, err := readCredentials(credentialsPath, logger)
	if err != nil {
		return nil, err
	}

	// Parse and validate JSON
	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	return NewWriterWithOptions(ctx, spreadsheetID, logger, option.WithCredentialsJSON(credsJSON))
}

// NewWriterWithOptions creates a writer with explicit client options
func NewWriterWithOptions(ctx context.Context, spreadsheetID string, logger *slog.Logger, opts ...option.ClientOption) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}, nil
}

// readCredentials reads credentials from a file or the GOOGLE_SHEETS_CREDENTIALS environment variable
func readCredentials(credentialsPath string, logger *slog.Logger) ([]byte, error) {
	if credentialsPath != "" {
		credsJSON, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return credsJSON, nil
	}

	credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
	if credsEnv == "" {
		return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
	}
	if logger != nil {
		logger.Debug("reading credentials from GOOGLE_SHEETS_CREDENTIALS", "bytes", len(credsEnv))
	}
	return []byte(credsEnv), nil
}

// CreateSheetAndWriteQuotes creates a new sheet at the beginning of the spreadsheet
// and writes quotes to it. sourceURL is optional metadata for the first row.
// Returns the sheet name and sheet ID (gid) that was created.
func (w *Writer) CreateSheetAndWriteQuotes(ctx context.Context, sheetName string, quotes []models.Quote, sourceURL string) (string, int64, error) {
	sheetName = sanitizeSheetName(sheetName)

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
						Index: 0,
						// Index 0 is the zero value and would be dropped from the request
						ForceSendFields: []string{"Index"},
					},
				},
			},
		},
	}

	batchUpdateResp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(batchUpdateResp.Replies) > 0 && batchUpdateResp.Replies[0].AddSheet != nil {
		sheetID = batchUpdateResp.Replies[0].AddSheet.Properties.SheetId
	}
	w.logger.Info("created sheet", "name", sheetName, "sheet_id", sheetID)

	valueRange := &sheets.ValueRange{
		Values: buildValues(quotes, sourceURL),
	}

	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, fmt.Sprintf("%s!A1", sheetName), valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write to sheet: %w", err)
	}

	w.logger.Info("wrote quotes to sheet", "count", len(quotes), "name", sheetName)
	return sheetName, sheetID, nil
}

// buildValues lays out the optional metadata row, the header and one row per quote
func buildValues(quotes []models.Quote, sourceURL string) [][]interface{} {
	var values [][]interface{}

	if sourceURL != "" {
		values = append(values, []interface{}{"URL", sourceURL})
	}

	header := make([]interface{}, len(models.Columns))
	for i, col := range models.Columns {
		header[i] = col
	}
	values = append(values, header)

	for _, q := range quotes {
		values = append(values, []interface{}{q.Quote, q.Author, csvout.FormatTags(q.Tags)})
	}
	return values
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ]
	invalidChars := []string{"/", "\\", "?", "*", "[", "]"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	// Sheet names are limited to 100 characters
	if runes := []rune(result); len(runes) > maxSheetNameLen {
		result = string(runes[:maxSheetNameLen])
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) string {
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}

package csvout

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"quotes-scraper/models"
)

// ErrEmptyDataset is returned when there is no record to derive the header from
var ErrEmptyDataset = errors.New("empty dataset: no record to derive CSV header from")

// Write writes a header row taken from the first record followed by one row per record
func Write(w io.Writer, quotes []models.Quote) error {
	if len(quotes) == 0 {
		return ErrEmptyDataset
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(quotes[0].Fields()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, q := range quotes {
		if err := cw.Write([]string{q.Quote, q.Author, FormatTags(q.Tags)}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes quotes to a CSV file at path, replacing any existing file.
// Nothing is created when quotes is empty.
func WriteFile(quotes []models.Quote, path string) (err error) {
	if len(quotes) == 0 {
		return ErrEmptyDataset
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return Write(f, quotes)
}

// FormatTags renders a tag list the way the original dataset stored it,
// e.g. ['wisdom', 'life']
func FormatTags(tags []string) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = quoteString(tag)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// quoteString prefers single quotes and switches to double quotes
// only when the value has a single quote and no double quote.
func quoteString(s string) string {
	quote := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

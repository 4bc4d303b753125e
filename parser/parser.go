package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quotes-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for the quote listing markup
const (
	QuoteSelector  = "div.quote"
	TextSelector   = ".text"
	AuthorSelector = ".author"
	TagsSelector   = "div.tags"
	TagSelector    = "a.tag"
)

// ErrMissingElement is wrapped by StructureError
var ErrMissingElement = errors.New("missing element")

// StructureError reports a quote block that lacks a required element
type StructureError struct {
	Index    int // position of the quote block in the document
	Selector string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("quote block %d: %s %q", e.Index, ErrMissingElement, e.Selector)
}

func (e *StructureError) Unwrap() error {
	return ErrMissingElement
}

// ParseFile reads a saved HTML page and builds its document tree
func ParseFile(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML %s: %w", path, err)
	}
	return doc, nil
}

// Extract returns one Quote per quote block in document order.
// A block without text, author or tags container is a structural error;
// no defaults are filled in.
func Extract(doc *goquery.Document) ([]models.Quote, error) {
	var quotes []models.Quote
	var extractErr error

	doc.Find(QuoteSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		quote, err := extractQuote(i, s)
		if err != nil {
			extractErr = err
			return false
		}
		quotes = append(quotes, quote)
		return true
	})

	if extractErr != nil {
		return nil, extractErr
	}
	return quotes, nil
}

func extractQuote(i int, s *goquery.Selection) (models.Quote, error) {
	text := s.Find(TextSelector).First()
	if text.Length() == 0 {
		return models.Quote{}, &StructureError{Index: i, Selector: TextSelector}
	}
	author := s.Find(AuthorSelector).First()
	if author.Length() == 0 {
		return models.Quote{}, &StructureError{Index: i, Selector: AuthorSelector}
	}
	tagsContainer := s.Find(TagsSelector).First()
	if tagsContainer.Length() == 0 {
		return models.Quote{}, &StructureError{Index: i, Selector: TagsSelector}
	}

	tags := []string{}
	tagsContainer.Find(TagSelector).Each(func(_ int, tag *goquery.Selection) {
		tags = append(tags, strings.TrimSpace(tag.Text()))
	})

	return models.Quote{
		Quote:  strings.TrimSpace(text.Text()),
		Author: strings.TrimSpace(author.Text()),
		Tags:   tags,
	}, nil
}

// ProcessDir parses and extracts every .html file in dir, in listing order
func ProcessDir(dir string) ([]models.Quote, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var all []models.Quote
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		doc, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		quotes, err := Extract(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", path, err)
		}
		all = append(all, quotes...)
	}

	return all, nil
}

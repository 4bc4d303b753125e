package scraper

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quotes-scraper/config"
	"quotes-scraper/csvout"
	"quotes-scraper/db"
	"quotes-scraper/fetcher"
	"quotes-scraper/filter"
	"quotes-scraper/models"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	statuses []string
	saved    []models.Quote
	failErr   error
	saveErr   error
	updateErr error
}

func (f *fakeStore) CreateRun(baseURL string, pages int) (int, error) {
	f.statuses = append(f.statuses, db.StatusCreated)
	return 7, nil
}

func (f *fakeStore) UpdateRunStatus(runID int, status string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) FailRun(runID int, runErr error) error {
	f.statuses = append(f.statuses, db.StatusFailed)
	f.failErr = runErr
	return nil
}

func (f *fakeStore) SaveQuotes(runID int, quotes []models.Quote) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.statuses = append(f.statuses, db.StatusDone)
	f.saved = quotes
	return nil
}

type fakeSheets struct {
	quotes []models.Quote
	err    error
}

func (f *fakeSheets) CreateSheetAndWriteQuotes(ctx context.Context, sheetName string, quotes []models.Quote, sourceURL string) (string, int64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	f.quotes = quotes
	return sheetName, 1, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// quotesSite serves /page/{i}/ with perPage quote blocks for pages 1..available
func quotesSite(t *testing.T, available, perPage int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var page int
		if _, err := fmt.Sscanf(r.URL.Path, "/page/%d/", &page); err != nil || page < 1 || page > available {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>")
		for i := 1; i <= perPage; i++ {
			tag := "odd"
			if i%2 == 0 {
				tag = "even"
			}
			fmt.Fprintf(w, `<div class="quote"><span class="text">“Quote %d.%d”</span>
<span>by <small class="author">Author %d</small></span>
<div class="tags">Tags: <a class="tag" href="/tag/%s/">%s</a><a class="tag">page-%d</a></div></div>`,
				page, i, i, tag, tag, page)
		}
		fmt.Fprint(w, "</body></html>")
	}))
	t.Cleanup(server.Close)
	return server
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunEndToEnd(t *testing.T) {
	server := quotesSite(t, 2, 3)
	dir := t.TempDir()
	csvPath := filepath.Join(t.TempDir(), "quotes.csv")

	s := NewScraper(fetcher.NewCollyFetcher("", quietLogger()), nil, quietLogger())
	result, err := s.Run(context.Background(), Options{
		BaseURL:  server.URL,
		PagesDir: dir,
		CSVFile:  csvPath,
		Pages:    2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Pages)
	require.Equal(t, 6, result.Extracted)
	require.Equal(t, 6, result.Written)
	require.Zero(t, result.RunID)

	records := readCSV(t, csvPath)
	require.Len(t, records, 7)
	require.Equal(t, models.Columns, records[0])
	require.Equal(t, []string{"“Quote 1.1”", "Author 1", "['odd', 'page-1']"}, records[1])
	require.Equal(t, []string{"“Quote 2.3”", "Author 3", "['odd', 'page-2']"}, records[6])
}

func TestRunSkipsFailedPages(t *testing.T) {
	server := quotesSite(t, 2, 1)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")

	s := NewScraper(fetcher.NewCollyFetcher("", quietLogger()), nil, quietLogger())
	result, err := s.Run(context.Background(), Options{
		BaseURL:  server.URL,
		PagesDir: dir,
		CSVFile:  csvPath,
		Pages:    4,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Written)

	for _, name := range []string{"page_3.html", "page_4.html"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.True(t, os.IsNotExist(err), name)
	}
}

func TestRunEmptyDataset(t *testing.T) {
	server := quotesSite(t, 0, 0)
	csvPath := filepath.Join(t.TempDir(), "quotes.csv")
	store := &fakeStore{}

	s := NewScraper(fetcher.NewCollyFetcher("", quietLogger()), nil, quietLogger())
	s.SetStore(store)
	_, err := s.Run(context.Background(), Options{
		BaseURL:  server.URL,
		PagesDir: t.TempDir(),
		CSVFile:  csvPath,
		Pages:    3,
	})
	require.ErrorIs(t, err, csvout.ErrEmptyDataset)
	require.ErrorIs(t, store.failErr, csvout.ErrEmptyDataset)
	require.Equal(t, []string{db.StatusCreated, db.StatusInProgress, db.StatusFailed}, store.statuses)

	_, statErr := os.Stat(csvPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunWithFilterStoreAndSheets(t *testing.T) {
	server := quotesSite(t, 1, 4)
	cfg := config.GetDefaultConfig()
	cfg.Filters.Tags = []string{"even"}

	store := &fakeStore{}
	exporter := &fakeSheets{}

	s := NewScraper(fetcher.NewCollyFetcher("", quietLogger()), filter.NewFilter(cfg), quietLogger())
	s.SetStore(store)
	s.SetSheets(exporter)

	result, err := s.Run(context.Background(), Options{
		BaseURL:  server.URL,
		PagesDir: t.TempDir(),
		CSVFile:  filepath.Join(t.TempDir(), "quotes.csv"),
		Pages:    1,
	})
	require.NoError(t, err)
	require.Equal(t, 7, result.RunID)
	require.Equal(t, 4, result.Extracted)
	require.Equal(t, 2, result.Written)
	require.True(t, strings.HasPrefix(result.SheetName, "Quotes_"))

	require.Equal(t, []string{db.StatusCreated, db.StatusInProgress, db.StatusDone}, store.statuses)
	require.Len(t, store.saved, 2)
	require.Equal(t, "Author 2", store.saved[0].Author)
	require.Equal(t, "Author 4", store.saved[1].Author)
	require.Equal(t, store.saved, exporter.quotes)
}

func TestRunSheetsFailureIsNotFatal(t *testing.T) {
	server := quotesSite(t, 1, 1)

	s := NewScraper(fetcher.NewCollyFetcher("", quietLogger()), nil, quietLogger())
	s.SetSheets(&fakeSheets{err: errors.New("quota exceeded")})

	result, err := s.Run(context.Background(), Options{
		BaseURL:  server.URL,
		PagesDir: t.TempDir(),
		CSVFile:  filepath.Join(t.TempDir(), "quotes.csv"),
		Pages:    1,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Written)
	require.Empty(t, result.SheetName)
}

func TestRunStoreFailure(t *testing.T) {
	server := quotesSite(t, 1, 1)
	store := &fakeStore{saveErr: errors.New("connection reset")}

	s := NewScraper(fetcher.NewCollyFetcher("", quietLogger()), nil, quietLogger())
	s.SetStore(store)

	_, err := s.Run(context.Background(), Options{
		BaseURL:  server.URL,
		PagesDir: t.TempDir(),
		CSVFile:  filepath.Join(t.TempDir(), "quotes.csv"),
		Pages:    1,
	})
	require.ErrorContains(t, err, "connection reset")
	require.Equal(t, db.StatusFailed, store.statuses[len(store.statuses)-1])
}

func TestRunStatusUpdateFailure(t *testing.T) {
	store := &fakeStore{updateErr: errors.New("read-only transaction")}
	rec := &countingFetcher{}

	s := NewScraper(rec, nil, quietLogger())
	s.SetStore(store)

	_, err := s.Run(context.Background(), Options{
		BaseURL:  "http://example.invalid",
		PagesDir: t.TempDir(),
		CSVFile:  filepath.Join(t.TempDir(), "quotes.csv"),
		Pages:    2,
	})
	require.ErrorContains(t, err, "read-only transaction")
	require.ErrorContains(t, store.failErr, "read-only transaction")
	require.Equal(t, []string{db.StatusCreated, db.StatusFailed}, store.statuses)
	require.Zero(t, rec.calls)
}

type countingFetcher struct {
	calls int
}

func (c *countingFetcher) Fetch(url, dest string) error {
	c.calls++
	return nil
}

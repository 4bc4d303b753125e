package fetcher

import (
	"fmt"
	"path/filepath"
)

// DefaultPages is the number of listing pages downloaded when none is given
const DefaultPages = 10

// PageURL returns the URL of listing page i under baseURL
func PageURL(baseURL string, i int) string {
	return fmt.Sprintf("%s/page/%d/", baseURL, i)
}

// PageFileName returns the file name page i is saved as
func PageFileName(i int) string {
	return fmt.Sprintf("page_%d.html", i)
}

// DownloadPages fetches pages 1..pages of baseURL one after another into dir.
// A page that fails to download does not stop the remaining pages.
func DownloadPages(f Fetcher, baseURL, dir string, pages int) error {
	for i := 1; i <= pages; i++ {
		dest := filepath.Join(dir, PageFileName(i))
		if err := f.Fetch(PageURL(baseURL, i), dest); err != nil {
			return err
		}
	}
	return nil
}

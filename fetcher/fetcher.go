package fetcher

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch retrieves the page at url and saves its body to dest.
	// Download failures are reported through the log, not the returned error;
	// only a failure to write dest is returned.
	Fetch(url, dest string) error
}

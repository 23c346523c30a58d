// Package browserdriver gives the crawl coordinator a concrete (but
// intentionally minimal) way to drive a headless browser, speaking the W3C
// WebDriver JSON wire protocol over HTTP.
package browserdriver

import "context"

// Driver is the contract the crawl coordinator depends on. Implementations
// are single-threaded: the coordinator never calls a Driver concurrently
// with itself.
type Driver interface {
	// Navigate loads url and blocks until the browser reports the page has
	// settled.
	Navigate(ctx context.Context, url string) error
	// Quit terminates the underlying browser session. It must actually tear
	// the session down rather than merely return without effect.
	Quit(ctx context.Context) error
}

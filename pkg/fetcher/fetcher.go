// Package fetcher retrieves a single published post so its body can be run
// through the cleaner. It understands plain HTML pages and WordPress REST
// API post URLs (/wp-json/wp/v2/posts/{id}).
package fetcher

import (
	"context"
	"errors"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves a post from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources.
	Close() error

	// Type returns a string identifying the fetcher type.
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string

	// Selector picks the post body on HTML pages. Empty uses DefaultSelectors.
	Selector string
}

// Content represents a fetched post.
type Content struct {
	URL         string
	HTML        string // full response body
	Body        string // post body HTML, the part worth cleaning
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Source      string // "html" or "wp-json"
}

// DefaultSelectors are tried in order to locate the post body on an HTML page.
var DefaultSelectors = []string{
	"article .entry-content",
	".entry-content",
	".post-content",
	"article",
	"main",
	"body",
}

var (
	// ErrNoBody indicates no post body could be located in the response.
	ErrNoBody = errors.New("no post body found")

	// ErrHTTPStatus indicates a non-2xx response.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

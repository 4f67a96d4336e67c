package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/postclean/internal/logger"
	"github.com/jmylchreest/postclean/internal/version"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent: version.UserAgent(),
		Timeout:   30 * time.Second,
	}
}

// StaticFetcher uses Colly for plain HTTP fetching.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultStaticConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultStaticConfig().Timeout
	}
	return &StaticFetcher{config: cfg}
}

// wpPost is the subset of a WordPress REST API post that carries content.
type wpPost struct {
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
}

// Fetch retrieves a post using Colly.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	log := logger.Component("fetcher")
	log.Debug("fetch starting", "url", targetURL)

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	c := colly.NewCollector(
		colly.UserAgent(coalesce(opts.UserAgent, f.config.UserAgent)),
		colly.StdlibContext(ctx),
	)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)

	if len(opts.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range opts.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
		log.Debug("response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.StatusCode = r.StatusCode
			fetchErr = fmt.Errorf("%w: %d", ErrHTTPStatus, r.StatusCode)
			return
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})

	// colly reports failures through OnError and the Visit return value;
	// the callback carries the status code
	visitErr := c.Visit(targetURL)
	if fetchErr != nil {
		return result, fetchErr
	}
	if visitErr != nil {
		return result, fmt.Errorf("failed to visit URL: %w", visitErr)
	}

	var err error
	if isWPJSON(targetURL, result.ContentType) {
		err = parseWPJSON(&result)
	} else {
		err = parseHTML(&result, opts.Selector)
	}
	if err != nil {
		return result, err
	}

	log.Debug("fetch complete", "url", targetURL, "source", result.Source, "body_size", len(result.Body))
	return result, nil
}

func isWPJSON(targetURL, contentType string) bool {
	return strings.Contains(targetURL, "/wp-json/") || strings.HasPrefix(contentType, "application/json")
}

func parseWPJSON(content *Content) error {
	var post wpPost
	if err := json.Unmarshal([]byte(content.HTML), &post); err != nil {
		return fmt.Errorf("failed to parse post JSON: %w", err)
	}
	if strings.TrimSpace(post.Content.Rendered) == "" {
		return ErrNoBody
	}
	content.Source = "wp-json"
	content.Title = html.UnescapeString(post.Title.Rendered)
	content.Body = post.Content.Rendered
	return nil
}

func parseHTML(content *Content, selector string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return fmt.Errorf("failed to parse content: %w", err)
	}
	content.Source = "html"
	content.Title = strings.TrimSpace(doc.Find("title").First().Text())

	selectors := DefaultSelectors
	if selector != "" {
		selectors = []string{selector}
	}
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		body, err := node.Html()
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", sel, err)
		}
		if strings.TrimSpace(body) != "" {
			content.Body = strings.TrimSpace(body)
			return nil
		}
	}
	return ErrNoBody
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

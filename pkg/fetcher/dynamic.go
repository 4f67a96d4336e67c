package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/postclean/internal/logger"
)

// ErrNoBrowser indicates no Chrome binary was found for the dynamic fetcher.
var ErrNoBrowser = errors.New("no Chrome or Chromium binary found")

// DynamicConfig holds configuration for the dynamic fetcher.
type DynamicConfig struct {
	UserAgent string
	Timeout   time.Duration

	// ChromePath overrides browser discovery.
	ChromePath string

	// WaitFor is a CSS selector that must be visible before the page is
	// captured. Empty waits for body.
	WaitFor string
}

// DynamicFetcher renders pages in headless Chrome. Some themes only
// insert the post body from JavaScript; the static fetcher sees an empty
// container on those.
type DynamicFetcher struct {
	config      DynamicConfig
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewDynamic creates a dynamic fetcher. The browser is started lazily on
// the first Fetch.
func NewDynamic(cfg DynamicConfig) (*DynamicFetcher, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultStaticConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultStaticConfig().Timeout
	}
	if cfg.ChromePath == "" {
		cfg.ChromePath = FindChromePath()
	}
	if cfg.ChromePath == "" {
		return nil, ErrNoBrowser
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(cfg.ChromePath),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1280, 1024),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("dynamic fetcher created", "chrome", cfg.ChromePath, "timeout", cfg.Timeout)
	return &DynamicFetcher{config: cfg, allocCtx: allocCtx, cancelAlloc: cancel}, nil
}

// Fetch renders targetURL and extracts the post body like the static
// fetcher does for HTML pages.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	log := logger.Component("fetcher")
	log.Debug("dynamic fetch starting", "url", targetURL)

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	// chromedp contexts derive from the allocator, so the caller's
	// cancellation is forwarded by hand
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	waitFor := f.config.WaitFor
	if waitFor == "" {
		waitFor = "body"
	}

	var page, title string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitVisible(waitFor),
		chromedp.OuterHTML("html", &page),
		chromedp.Title(&title),
	)
	if err != nil {
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	// chromedp does not expose the response status
	result.StatusCode = 200
	result.ContentType = "text/html"
	result.HTML = page

	if err := parseHTML(&result, opts.Selector); err != nil {
		return result, err
	}
	result.Source = "rendered"
	if title != "" {
		result.Title = title
	}

	log.Debug("dynamic fetch complete", "url", targetURL, "body_size", len(result.Body))
	return result, nil
}

// Close shuts the browser down.
func (f *DynamicFetcher) Close() error {
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}

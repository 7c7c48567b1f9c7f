package faresearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"flightdeck/internal/logging"
)

// Fetcher returns the HTML of a results page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// resultsSelector matches the fare groups on a results page.
const resultsSelector = `div[jsname="IWWDBc"], div[jsname="YdtKid"]`

func hasResults(page string) bool {
	return strings.Contains(page, `jsname="IWWDBc"`) || strings.Contains(page, `jsname="YdtKid"`)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	Language  string
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if f.Language != "" {
		req.Header.Set("Accept-Language", f.Language)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d", req.URL.Host, resp.StatusCode)
	}
	return string(body), nil
}

// FallbackFetcher retries the primary fetcher, then falls back to a
// secondary one (usually a browser) when no results page came back.
type FallbackFetcher struct {
	Primary   Fetcher
	Secondary Fetcher
	Retries   int
	Backoff   time.Duration
}

// Fetch implements Fetcher.
func (f *FallbackFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		if attempt > 0 && f.Backoff > 0 {
			select {
			case <-time.After(f.Backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		page, err := f.Primary.Fetch(ctx, url)
		if err == nil && hasResults(page) {
			return page, nil
		}
		if err == nil {
			err = ErrNoFlights
		}
		lastErr = err
		logging.SearchWarn("fetch attempt %d/%d failed: %v", attempt+1, f.Retries+1, err)
	}

	if f.Secondary == nil {
		return "", lastErr
	}
	logging.Search("falling back to browser fetch")
	page, err := f.Secondary.Fetch(ctx, url)
	if err != nil {
		return "", errors.Join(lastErr, err)
	}
	return page, nil
}

// BrowserFetcher loads pages in headless Chrome via go-rod.
type BrowserFetcher struct {
	// Bin is the browser binary; empty lets rod find or download one.
	Bin     string
	Timeout time.Duration
}

// Fetch implements Fetcher.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	l := launcher.New().Headless(true)
	if f.Bin != "" {
		l = l.Bin(f.Bin)
	}
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return "", fmt.Errorf("launch chrome: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect to chrome: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	page = page.Timeout(timeout)
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("load %s: %w", url, err)
	}
	if _, err := page.Element(resultsSelector); err != nil {
		return "", fmt.Errorf("wait for results: %w", err)
	}

	out, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	logging.SearchDebug("browser fetched %d bytes", len(out))
	return out, nil
}

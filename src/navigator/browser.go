package navigator

import (
	"context"
	"errors"
	"sync"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/logger"
	"mse-observer/src/models"

	"github.com/chromedp/chromedp"
)

var errBrowserClosed = errors.New("browser navigator is closed")

// BrowserNavigator renders pages in a shared headless Chrome. Each call opens
// its own tab, which is closed on every return path.
type BrowserNavigator struct {
	Timeout time.Duration
	Settle  time.Duration
	Logger  *logger.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu      sync.Mutex
	launch  *launchAttempt
	started bool
	closed  bool
}

// launchAttempt is one in-flight Chrome start shared by concurrent callers.
type launchAttempt struct {
	done chan struct{}
	err  error
}

// -----------------------------------------------------------------------------

// NewBrowserNavigator prepares the allocator. Chrome itself is launched on
// the first fetch.
func NewBrowserNavigator(cfg models.MScraperConfig, userAgent string, log *logger.Logger) *BrowserNavigator {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.DisableGPU,
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &BrowserNavigator{
		Timeout:       time.Duration(cfg.NavigationTimeoutSecs) * time.Second,
		Settle:        time.Duration(cfg.SettleMillis) * time.Millisecond,
		Logger:        log,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
}

// -----------------------------------------------------------------------------

// ensureStarted launches Chrome once. The launch runs on the browser context
// so it outlives the caller, but each caller waits no longer than its own ctx.
func (b *BrowserNavigator) ensureStarted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errBrowserClosed
	}
	if b.started {
		b.mu.Unlock()
		return nil
	}
	attempt := b.launch
	if attempt == nil {
		attempt = &launchAttempt{done: make(chan struct{})}
		b.launch = attempt
		go b.runLaunch(attempt)
	}
	b.mu.Unlock()

	select {
	case <-attempt.done:
		return attempt.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *BrowserNavigator) runLaunch(attempt *launchAttempt) {
	err := chromedp.Run(b.browserCtx)

	b.mu.Lock()
	switch {
	case b.closed:
		err = errBrowserClosed
	case err == nil:
		b.started = true
		b.Logger.Info("Headless browser started")
	default:
		b.Logger.Warning("Headless browser failed to start: %v", err)
	}
	// A failed attempt is forgotten so the next fetch retries.
	b.launch = nil
	b.mu.Unlock()

	attempt.err = err
	close(attempt.done)
}

// -----------------------------------------------------------------------------

// render loads url in a fresh tab and returns the document HTML once the body
// is ready and the page has had Settle time for client-side rendering.
func (b *BrowserNavigator) render(ctx context.Context, url string) (string, error) {
	if err := b.ensureStarted(ctx); err != nil {
		return "", helpers.NewNavigationError(url, err)
	}

	tabCtx, closeTab := chromedp.NewContext(b.browserCtx)
	defer closeTab()

	tabCtx, cancel := context.WithTimeout(tabCtx, b.Timeout)
	defer cancel()

	// The tab lives under the browser context, so the caller's cancellation
	// has to be forwarded explicitly.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Join(ctx.Err(), err)
		}
		return "", helpers.NewNavigationError(url, err)
	}
	return html, nil
}

// -----------------------------------------------------------------------------

func (b *BrowserNavigator) FetchRawRows(ctx context.Context, url string, selector string) ([][]string, error) {
	html, err := b.render(ctx, url)
	if err != nil {
		return nil, err
	}
	rows, err := ExtractRows(html, selector)
	if err != nil {
		return nil, helpers.NewNavigationError(url, err)
	}
	return rows, nil
}

// -----------------------------------------------------------------------------

func (b *BrowserNavigator) FetchPageText(ctx context.Context, url string) (string, error) {
	html, err := b.render(ctx, url)
	if err != nil {
		return "", err
	}
	text, err := ExtractText(html)
	if err != nil {
		return "", helpers.NewNavigationError(url, err)
	}
	return text, nil
}

// -----------------------------------------------------------------------------

// Close shuts down Chrome. It is safe to call more than once.
func (b *BrowserNavigator) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.browserCancel()
	b.allocCancel()
	return nil
}

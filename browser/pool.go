// Package browser renders quote pages in headless Chrome.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Pool keeps a fixed number of browser tabs for reuse.
type Pool struct {
	size        int
	timeout     time.Duration
	userAgent   string
	execPath    string
	headers     map[string]interface{}
	logger      *zap.Logger
	contexts    chan context.Context
	cancelFuncs []context.CancelFunc
	initOnce    sync.Once
	initErr     error
	allocCancel context.CancelFunc
	mu          sync.Mutex
}

// New creates a pool of size tabs. Browsers start on first use.
func New(size int, timeout time.Duration, userAgent string, headers map[string]string, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	extra := make(map[string]interface{}, len(headers))
	for k, v := range headers {
		if k == "User-Agent" {
			continue
		}
		extra[k] = v
	}
	return &Pool{
		size:      size,
		timeout:   timeout,
		userAgent: userAgent,
		headers:   extra,
		logger:    logger,
		contexts:  make(chan context.Context, size),
	}
}

func (pool *Pool) initialize() error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(pool.userAgent),
	)
	if pool.execPath != "" {
		opts = append(opts, chromedp.ExecPath(pool.execPath))
	}

	var allocCtx context.Context
	allocCtx, pool.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)

	for i := 0; i < pool.size; i++ {
		ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
			pool.logger.Sugar().Debugf(format, args...)
		}))
		if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
			cancel()
			pool.teardown()
			return errors.Wrap(err, "failed to start browser")
		}
		pool.cancelFuncs = append(pool.cancelFuncs, cancel)
		pool.contexts <- ctx
	}

	pool.logger.Info("Browser pool initialized", zap.Int("size", pool.size))
	return nil
}

// Fetch navigates a tab to url and returns the rendered HTML.
func (pool *Pool) Fetch(ctx context.Context, url string) ([]byte, error) {
	pool.initOnce.Do(func() {
		pool.initErr = pool.initialize()
	})
	if pool.initErr != nil {
		return nil, pool.initErr
	}

	var tab context.Context
	select {
	case tab = <-pool.contexts:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() {
		// Clear state before the tab goes back.
		refreshCtx, cancel := context.WithTimeout(tab, 3*time.Second)
		defer cancel()
		_ = chromedp.Run(refreshCtx,
			network.ClearBrowserCookies(),
			chromedp.Navigate("about:blank"),
		)
		pool.contexts <- tab
	}()

	timeoutCtx, cancel := context.WithTimeout(tab, pool.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var htmlContent string
	err := chromedp.Run(timeoutCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers(pool.headers)),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render %s", url)
	}

	return []byte(htmlContent), nil
}

// Close shuts down all browser instances.
func (pool *Pool) Close() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	pool.teardown()
	pool.logger.Info("Browser pool shut down")
}

// teardown cancels every tab and the allocator. Callers hold mu.
func (pool *Pool) teardown() {
	for _, cancel := range pool.cancelFuncs {
		cancel()
	}
	pool.cancelFuncs = nil
	if pool.allocCancel != nil {
		pool.allocCancel()
		pool.allocCancel = nil
	}
	for len(pool.contexts) > 0 {
		<-pool.contexts
	}
}

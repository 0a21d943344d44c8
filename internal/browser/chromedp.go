// internal/browser/chromedp.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// actionTimeout bounds DOM interactions that carry no explicit budget
	actionTimeout = 10 * time.Second
	// startupTimeout bounds browser start on top of the caller's deadline
	startupTimeout = 30 * time.Second
)

// stealthScript hides the most common automation tells before any page script runs
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
window.chrome = window.chrome || { runtime: {} };
`

// ChromeLauncher starts one headless Chrome per session
type ChromeLauncher struct {
	config *BrowserConfig
	logger *zap.Logger
}

// NewChromeLauncher creates a launcher; a nil config uses DefaultBrowserConfig
func NewChromeLauncher(config *BrowserConfig, logger *zap.Logger) *ChromeLauncher {
	if config == nil {
		config = DefaultBrowserConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeLauncher{config: config, logger: logger}
}

// allocatorOptions builds the Chrome flags for config
func allocatorOptions(config *BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	}

	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	opts = append(opts, chromedp.UserAgent(userAgent))

	if config.ViewportWidth > 0 && config.ViewportHeight > 0 {
		opts = append(opts, chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight))
	}

	// Disable images for faster loading
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	return opts
}

// Launch starts a fresh browser process and opens one tab in it. ctx bounds
// startup only; the browser runs until Close.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(l.config)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.logger.Sugar().Debugf))

	session := &ChromeSession{
		ctx:         tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		logger:      l.logger,
	}

	// The first Run allocates the browser and binds the process to the
	// context it runs on, so it must run on the tab itself. Startup is
	// bounded by tearing the tab down instead.
	startCtx, cancelStart := context.WithTimeout(ctx, startupTimeout)
	defer cancelStart()
	abort := context.AfterFunc(startCtx, tabCancel)

	err := chromedp.Run(tabCtx)
	if !abort() {
		session.Close()
		return nil, eris.Wrap(startCtx.Err(), "browser start aborted")
	}
	if err != nil {
		session.Close()
		return nil, eris.Wrap(err, "failed to start browser")
	}

	setupCtx, cancel := session.scope(ctx, actionTimeout)
	defer cancel()

	var setup []chromedp.Action
	if l.config.ViewportWidth > 0 && l.config.ViewportHeight > 0 {
		setup = append(setup, chromedp.EmulateViewport(int64(l.config.ViewportWidth), int64(l.config.ViewportHeight)))
	}
	setup = append(setup, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	}))

	if err := chromedp.Run(setupCtx, setup...); err != nil {
		session.Close()
		return nil, eris.Wrap(err, "failed to prepare browser tab")
	}

	return session, nil
}

// ChromeSession implements Session over a single chromedp tab
type ChromeSession struct {
	ctx         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger
	closeOnce   sync.Once
}

// scope derives a context from the tab that also ends when ctx ends.
// Cancelling a derived context leaves the tab open.
func (s *ChromeSession) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = actionTimeout
	}
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate navigates to url and waits per opts.Strategy
func (s *ChromeSession) Navigate(ctx context.Context, url string, opts NavigateOptions) (WaitStrategy, error) {
	loadCtx, cancel := s.scope(ctx, opts.Timeout)
	err := chromedp.Run(loadCtx, chromedp.Navigate(url))
	cancel()
	if err == nil {
		return WaitLoad, nil
	}

	if opts.Strategy != WaitLoadThenReady || opts.ReadySelector == "" {
		return WaitLoad, eris.Wrapf(err, "navigation to %s failed", url)
	}
	if ctx.Err() != nil {
		return WaitLoad, eris.Wrap(ctx.Err(), "navigation aborted")
	}

	s.logger.Debug("load event missed its budget, waiting for ready selector",
		zap.String("url", url),
		zap.String("selector", opts.ReadySelector),
		zap.Error(err),
	)

	fallback := opts.FallbackTimeout
	if fallback <= 0 {
		fallback = opts.Timeout
	}
	if readyErr := s.WaitReady(ctx, opts.ReadySelector, fallback); readyErr != nil {
		return WaitLoadThenReady, eris.Wrapf(readyErr, "navigation to %s failed (load: %v)", url, err)
	}
	return WaitLoadThenReady, nil
}

// WaitReady waits for selector to exist in the DOM
func (s *ChromeSession) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := s.scope(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "element wait timeout for %q", selector)
	}
	return nil
}

// Fill clears the input and types value into it
func (s *ChromeSession) Fill(ctx context.Context, selector, value string) error {
	runCtx, cancel := s.scope(ctx, actionTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return eris.Wrapf(err, "fill %q failed", selector)
	}
	return nil
}

// Click clicks the first element matched by selector
func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	runCtx, cancel := s.scope(ctx, actionTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "click %q failed", selector)
	}
	return nil
}

// Evaluate runs a JavaScript expression
func (s *ChromeSession) Evaluate(ctx context.Context, expression string, out interface{}) error {
	runCtx, cancel := s.scope(ctx, actionTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(expression, out)); err != nil {
		return eris.Wrap(err, "script execution failed")
	}
	return nil
}

// OuterHTML returns the outer HTML of the first element matched by selector
func (s *ChromeSession) OuterHTML(ctx context.Context, selector string) (string, error) {
	runCtx, cancel := s.scope(ctx, actionTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", eris.Wrapf(err, "failed to get HTML of %q", selector)
	}
	return html, nil
}

// Location returns the current page URL
func (s *ChromeSession) Location(ctx context.Context) (string, error) {
	runCtx, cancel := s.scope(ctx, actionTimeout)
	defer cancel()

	var location string
	if err := chromedp.Run(runCtx, chromedp.Location(&location)); err != nil {
		return "", eris.Wrap(err, "failed to read location")
	}
	return location, nil
}

// Close closes the tab and kills the browser process
func (s *ChromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.ctx)
		s.tabCancel()
		s.allocCancel()
	})
	if err != nil && !eris.Is(err, context.Canceled) {
		return eris.Wrap(err, "failed to close browser")
	}
	return nil
}

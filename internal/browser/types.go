// internal/browser/types.go
package browser

import (
	"context"
	"time"
)

// DefaultUserAgent is a current desktop Chrome string used when no override is configured
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// WaitStrategy selects how Navigate decides a page is loaded
type WaitStrategy int

const (
	// WaitLoad waits for the page load event
	WaitLoad WaitStrategy = iota
	// WaitLoadThenReady waits for the load event and, if that misses its
	// budget, settles for the given selector being present in the DOM
	WaitLoadThenReady
)

// String returns the log name of the strategy
func (w WaitStrategy) String() string {
	switch w {
	case WaitLoad:
		return "load"
	case WaitLoadThenReady:
		return "load_then_ready"
	default:
		return "unknown"
	}
}

// BrowserConfig defines browser launch configuration
type BrowserConfig struct {
	Headless       bool   `yaml:"headless" json:"headless"`
	NoSandbox      bool   `yaml:"no_sandbox" json:"no_sandbox"`
	ExecPath       string `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
	UserDataDir    string `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	UserAgent      string `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ViewportWidth  int    `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height" json:"viewport_height"`
	DisableImages  bool   `yaml:"disable_images" json:"disable_images"`
}

// DefaultBrowserConfig returns default browser configuration
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Headless:       true,
		NoSandbox:      true, // Required for Docker environments
		UserAgent:      DefaultUserAgent,
		ViewportWidth:  1366,
		ViewportHeight: 768,
	}
}

// NavigateOptions tunes a single navigation
type NavigateOptions struct {
	Strategy WaitStrategy
	// Timeout bounds the load-event wait
	Timeout time.Duration
	// ReadySelector is required by WaitLoadThenReady
	ReadySelector string
	// FallbackTimeout bounds the ready-selector wait; defaults to Timeout
	FallbackTimeout time.Duration
}

// Session is one isolated automation session. Sessions are not safe for
// concurrent use.
type Session interface {
	// Navigate loads url according to opts and reports which strategy succeeded
	Navigate(ctx context.Context, url string, opts NavigateOptions) (WaitStrategy, error)

	// WaitReady waits for selector to exist in the DOM
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error

	// Fill clears the field matched by selector and types value into it
	Fill(ctx context.Context, selector, value string) error

	// Click clicks the first element matched by selector
	Click(ctx context.Context, selector string) error

	// Evaluate runs a JavaScript expression and decodes its result into out
	Evaluate(ctx context.Context, expression string, out interface{}) error

	// OuterHTML returns the outer HTML of the first element matched by selector
	OuterHTML(ctx context.Context, selector string) (string, error)

	// Location returns the current page URL
	Location(ctx context.Context) (string, error)

	// Close releases the session and its browser process
	Close() error
}

// Launcher creates isolated sessions
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// LauncherFunc adapts a function to Launcher
type LauncherFunc func(ctx context.Context) (Session, error)

// Launch calls f(ctx)
func (f LauncherFunc) Launch(ctx context.Context) (Session, error) {
	return f(ctx)
}

// pkg/api/api.go
package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/valpere/GIVerify/internal/browser"
	"github.com/valpere/GIVerify/internal/sources"
	"github.com/valpere/GIVerify/internal/verify"
)

// Options wires a Verifier. Zero values select the production defaults.
type Options struct {
	// Browser configures Chrome sessions when Launcher is nil
	Browser *browser.BrowserConfig
	// Launcher overrides how automation sessions are created
	Launcher browser.Launcher
	// Cache overrides the in-memory result cache
	Cache verify.Cache
	// Recorder receives core metrics events
	Recorder verify.Recorder
	Logger   *zap.Logger
}

// Verifier is the public entry point: cache, serial queue, two-source
// fallback and browser extraction behind a single call.
type Verifier struct {
	scheduler *verify.Scheduler
	logger    *zap.Logger
}

// New builds a Verifier from opts
func New(opts Options) *Verifier {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = verify.NopRecorder{}
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = browser.NewChromeLauncher(opts.Browser, logger.Named("browser"))
	}

	orchestrator := verify.NewOrchestrator(
		sources.NewPrimary(launcher, logger.Named("sources")),
		sources.NewSecondary(launcher, logger.Named("sources")),
		verify.WithOrchestratorLogger(logger.Named("orchestrator")),
		verify.WithOrchestratorRecorder(recorder),
	)

	scheduler := verify.NewScheduler(orchestrator, opts.Cache,
		verify.WithSchedulerLogger(logger.Named("scheduler")),
		verify.WithSchedulerRecorder(recorder),
	)

	return &Verifier{scheduler: scheduler, logger: logger}
}

// ScrapeProduct returns the provenance result for productCode. Latency is
// unbounded: a cold code waits for every extraction queued ahead of it.
func (v *Verifier) ScrapeProduct(ctx context.Context, productCode string) (*Result, error) {
	return v.scheduler.Submit(ctx, productCode)
}

// QueueLength returns the number of requests waiting for the worker
func (v *Verifier) QueueLength() int {
	return v.scheduler.Len()
}

// Busy reports whether an extraction is running
func (v *Verifier) Busy() bool {
	return v.scheduler.Active()
}

// CacheSize returns the number of cached results
func (v *Verifier) CacheSize() int {
	return v.scheduler.CacheSize()
}

// Close stops the verifier; queued and in-flight requests fail
func (v *Verifier) Close() error {
	return v.scheduler.Close()
}

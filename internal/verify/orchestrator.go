// internal/verify/orchestrator.go
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// SecondaryAttempts is how many times the secondary site is tried
	SecondaryAttempts = 2
	// BackoffStep is multiplied by the upcoming attempt number to get the
	// delay after a failed secondary attempt
	BackoffStep = 2 * time.Second
)

// Decision names how the orchestrator arrived at its outcome
type Decision string

const (
	DecisionPrimary                 Decision = "primary"
	DecisionSecondary               Decision = "secondary"
	DecisionSecondaryOverPrimaryErr Decision = "secondary_over_primary_error"
	DecisionPrimaryOverSecondary    Decision = "primary_over_secondary"
	DecisionPrimaryOverSecondaryErr Decision = "primary_over_secondary_error"
	DecisionFailed                  Decision = "failed"
)

// Sleeper waits for d or until ctx ends
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Orchestrator runs the primary extractor and fails over to the secondary
type Orchestrator struct {
	primary   Extractor
	secondary Extractor
	sleep     Sleeper
	logger    *zap.Logger
	recorder  Recorder
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithSleeper replaces the backoff sleeper
func WithSleeper(sleep Sleeper) OrchestratorOption {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithOrchestratorLogger sets the logger
func WithOrchestratorLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOrchestratorRecorder sets the metrics recorder
func WithOrchestratorRecorder(recorder Recorder) OrchestratorOption {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// NewOrchestrator creates an orchestrator over the two extractors
func NewOrchestrator(primary, secondary Extractor, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		primary:   primary,
		secondary: secondary,
		sleep:     SleepContext,
		logger:    zap.NewNop(),
		recorder:  NopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run extracts productCode. A usable primary result wins outright. Otherwise
// the secondary is tried up to SecondaryAttempts times, backing off only
// after attempts that fail. The first secondary result that comes back ends
// the retries: a usable one wins; an unusable one wins only if the primary
// failed, else the primary's unusable result stands. Run fails only when
// both sites failed.
func (o *Orchestrator) Run(ctx context.Context, productCode string) (*Result, error) {
	logger := o.logger.With(zap.String("product_code", productCode))

	primaryResult, primaryErr := o.extract(ctx, SourcePrimary, o.primary, productCode)
	if primaryErr == nil && primaryResult.Usable() {
		return o.decide(logger, DecisionPrimary, primaryResult.withSource(SourcePrimary)), nil
	}

	if primaryErr != nil {
		logger.Warn("primary source failed, trying secondary", zap.Error(primaryErr))
	} else {
		logger.Info("primary result unusable, trying secondary",
			zap.Bool("invalid", primaryResult.Invalid),
			zap.Int("attributes", len(primaryResult.Attributes)),
		)
	}

	var secondaryErr error
	for attempt := 1; attempt <= SecondaryAttempts; attempt++ {
		if attempt > 1 {
			delay := BackoffStep * time.Duration(attempt)
			logger.Info("backing off before secondary retry",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			if err := o.sleep(ctx, delay); err != nil {
				secondaryErr = eris.Wrap(err, "secondary retry aborted")
				break
			}
		}

		result, err := o.extract(ctx, SourceSecondary, o.secondary, productCode)
		if err != nil {
			secondaryErr = err
			logger.Warn("secondary source failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", SecondaryAttempts),
				zap.Error(err),
			)
			continue
		}

		switch {
		case result.Usable():
			return o.decide(logger, DecisionSecondary, result.withSource(SourceSecondary)), nil
		case primaryErr != nil:
			return o.decide(logger, DecisionSecondaryOverPrimaryErr, result.withSource(SourceSecondary)), nil
		default:
			return o.decide(logger, DecisionPrimaryOverSecondary, primaryResult.withSource(SourcePrimary)), nil
		}
	}

	if primaryErr != nil {
		o.recorder.Decision(DecisionFailed)
		err := &SourcesError{ProductCode: productCode, Primary: primaryErr, Secondary: secondaryErr}
		logger.Error("both sources failed", zap.Error(err))
		return nil, err
	}
	return o.decide(logger, DecisionPrimaryOverSecondaryErr, primaryResult.withSource(SourcePrimary)), nil
}

func (o *Orchestrator) decide(logger *zap.Logger, decision Decision, result *Result) *Result {
	o.recorder.Decision(decision)
	logger.Info("extraction resolved",
		zap.String("decision", string(decision)),
		zap.String("source", string(result.Source)),
		zap.Bool("invalid", result.Invalid),
		zap.Int("attributes", len(result.Attributes)),
	)
	return result
}

// extract calls one extractor and enforces the result invariants
func (o *Orchestrator) extract(ctx context.Context, source Source, extractor Extractor, productCode string) (result *Result, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, eris.New(fmt.Sprintf("%s extractor panicked: %v", source, p))
		}
		o.recorder.AdapterDone(source, outcomeOf(result, err), time.Since(start))
	}()

	if extractor == nil {
		return nil, eris.Errorf("%s extractor is not configured", source)
	}

	result, err = extractor.Extract(ctx, productCode)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, eris.Errorf("%s extractor returned no result", source)
	}

	if result.Invalid {
		return InvalidResult(productCode), nil
	}
	result = result.Clone()
	result.ProductCode = productCode
	return result, nil
}

func outcomeOf(result *Result, err error) string {
	switch {
	case err != nil:
		return errorKind(err)
	case result.Invalid:
		return "invalid"
	case len(result.Attributes) == 0:
		return "empty"
	default:
		return "usable"
	}
}

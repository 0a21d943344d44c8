// internal/verify/scheduler.go
package verify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner produces the final result for one product code
type Runner interface {
	Run(ctx context.Context, productCode string) (*Result, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, productCode string) (*Result, error)

// Run calls f(ctx, productCode)
func (f RunnerFunc) Run(ctx context.Context, productCode string) (*Result, error) {
	return f(ctx, productCode)
}

type outcome struct {
	result *Result
	err    error
}

// pendingRequest lives in the queue until the worker picks it up; done
// fires exactly once.
type pendingRequest struct {
	id       string
	code     string
	enqueued time.Time
	done     chan outcome
}

// Scheduler serializes extractions so at most one runs at a time, in FIFO
// order, and hands each result back to the caller that submitted it.
// Identical codes submitted while one is in flight are not merged; each
// gets its own run.
type Scheduler struct {
	runner   Runner
	cache    Cache
	logger   *zap.Logger
	recorder Recorder

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	queue    []*pendingRequest
	draining bool
	closed   bool
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the logger
func WithSchedulerLogger(logger *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchedulerRecorder sets the metrics recorder
func WithSchedulerRecorder(recorder Recorder) SchedulerOption {
	return func(s *Scheduler) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// NewScheduler creates a scheduler; a nil cache gets a fresh MemoryCache
func NewScheduler(runner Runner, cache Cache, opts ...SchedulerOption) *Scheduler {
	if cache == nil {
		cache = NewMemoryCache()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:   runner,
		cache:    cache,
		logger:   zap.NewNop(),
		recorder: NopRecorder{},
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit returns the result for productCode, from cache when present or
// else after its queued extraction completes. Cancelling ctx stops the
// wait only: the queued extraction still runs and its result is cached.
func (s *Scheduler) Submit(ctx context.Context, productCode string) (*Result, error) {
	code, err := NormalizeCode(productCode)
	if err != nil {
		return nil, err
	}

	if result, ok := s.cache.Get(code); ok {
		s.recorder.CacheLookup(true)
		s.logger.Debug("cache hit", zap.String("product_code", code))
		return result, nil
	}
	s.recorder.CacheLookup(false)

	req := &pendingRequest{
		id:       uuid.NewString(),
		code:     code,
		enqueued: time.Now(),
		done:     make(chan outcome, 1),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	s.queue = append(s.queue, req)
	depth := len(s.queue)
	s.mu.Unlock()

	s.recorder.QueueDepth(depth)
	s.logger.Info("request queued",
		zap.String("request_id", req.id),
		zap.String("product_code", code),
		zap.Int("queue_depth", depth),
	)

	s.drain()

	select {
	case out := <-req.done:
		return out.result, out.err
	case <-ctx.Done():
		s.logger.Info("caller stopped waiting",
			zap.String("request_id", req.id),
			zap.String("product_code", code),
			zap.Error(ctx.Err()),
		)
		return nil, ctx.Err()
	}
}

// drain starts the worker unless one is already running
func (s *Scheduler) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draining || s.closed || len(s.queue) == 0 {
		return
	}
	s.draining = true
	req := s.popLocked()

	s.wg.Add(1)
	go s.work(req)
}

// work processes requests until the queue is empty
func (s *Scheduler) work(req *pendingRequest) {
	defer s.wg.Done()

	for req != nil {
		s.process(req)

		s.mu.Lock()
		if s.closed || len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		req = s.popLocked()
		s.mu.Unlock()
	}
}

func (s *Scheduler) popLocked() *pendingRequest {
	req := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.recorder.QueueDepth(len(s.queue))
	return req
}

func (s *Scheduler) process(req *pendingRequest) {
	logger := s.logger.With(
		zap.String("request_id", req.id),
		zap.String("product_code", req.code),
	)
	logger.Info("extraction started", zap.Duration("queued_for", time.Since(req.enqueued)))

	start := time.Now()
	s.recorder.SessionActive(true)
	result, err := s.run(req.code)
	s.recorder.SessionActive(false)

	status := "success"
	switch {
	case err != nil:
		status = "failure"
		logger.Error("extraction failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
	default:
		if result.Invalid {
			status = "invalid"
		}
		s.cache.Put(req.code, result)
		logger.Info("extraction completed",
			zap.Duration("duration", time.Since(start)),
			zap.String("source", string(result.Source)),
			zap.Bool("invalid", result.Invalid),
		)
	}
	s.recorder.RequestDone(status, time.Since(req.enqueued))

	req.done <- outcome{result: result, err: err}
}

// run shields the worker from a panicking runner
func (s *Scheduler) run(code string) (result *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &panicError{value: p}
		}
	}()

	result, err = s.runner.Run(s.ctx, code)
	if err == nil && result == nil {
		err = &panicError{value: "runner returned no result"}
	}
	return result, err
}

// Len returns the number of requests waiting behind the active one
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Active reports whether an extraction is running
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

// CacheSize returns the number of cached results
func (s *Scheduler) CacheSize() int {
	return s.cache.Len()
}

// Close fails queued requests with ErrSchedulerClosed, cancels the running
// extraction and waits for the worker to exit.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	s.cancel()
	for _, req := range pending {
		req.done <- outcome{err: ErrSchedulerClosed}
	}
	s.recorder.QueueDepth(0)
	s.wg.Wait()
	return nil
}

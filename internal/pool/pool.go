// Package pool drives fetch tasks to a terminal result.
//
// A task makes at most one network attempt per run. The pool owns the retry
// policy: it re-runs failed tasks until their retry ceiling, waits with an
// exponential backoff while no peer is available and bounds the number of
// tasks in flight.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-beacon-fetch/internal/fetch"
	"github.com/thep2p/go-beacon-fetch/internal/model"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrDuplicateTask is returned when a task with the same key is already active.
	ErrDuplicateTask = errors.New("duplicate task")
	// ErrPoolStopped is returned when submitting to a stopped pool.
	ErrPoolStopped = errors.New("pool stopped")
	// ErrPoolNotStarted is returned when submitting before Start.
	ErrPoolNotStarted = errors.New("pool not started")
	// ErrPoolCancelled is returned when submitting after the context given to Start ended.
	ErrPoolCancelled = errors.New("pool context cancelled")
)

// Outcome is the terminal result of a task driven by the pool.
type Outcome[T any] struct {
	Key          string
	Result       fetch.Result[T]
	Retries      int
	QueriedPeers []peer.ID
}

type entry[T any] struct {
	task   *fetch.Task[T]
	cancel context.CancelFunc
}

// Pool runs fetch tasks concurrently and delivers their terminal outcomes.
type Pool[T any] struct {
	logger   zerolog.Logger
	cfg      Config
	observer AttemptObserver
	metrics  *metrics
	slots    *semaphore.Weighted
	results  chan Outcome[T]

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	active  map[string]*entry[T]

	wg       sync.WaitGroup
	halt     chan struct{}
	ready    chan struct{}
	done     chan struct{}
	startMu  sync.Once
	stopOnce sync.Once
}

// New creates a pool with the given policy. The pool must be started before
// tasks are submitted.
func New[T any](logger zerolog.Logger, cfg Config, opts ...Option) (*Pool[T], error) {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &settings{name: DefaultName}
	for _, opt := range opts {
		opt(s)
	}
	if s.registerer == nil {
		s.registerer = prometheus.NewRegistry()
	}

	m, err := newMetrics(s.registerer, s.name)
	if err != nil {
		return nil, err
	}

	return &Pool[T]{
		logger:   logger.With().Str(model.LogComponent, "fetch-pool").Str(model.MetricPool, s.name).Logger(),
		cfg:      cfg,
		observer: s.observer,
		metrics:  m,
		slots:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		results:  make(chan Outcome[T], cfg.ResultBuffer),
		active:   make(map[string]*entry[T]),
		halt:     make(chan struct{}),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start makes the pool accept tasks. Cancelling ctx cancels every active task
// and makes later submissions fail with ErrPoolCancelled; the pool keeps
// delivering outcomes until Stop is called. Calls after the first are ignored.
func (p *Pool[T]) Start(ctx context.Context) {
	p.startMu.Do(func() {
		p.mu.Lock()
		p.ctx, p.cancel = context.WithCancel(ctx)
		p.mu.Unlock()

		p.logger.Info().
			Int("max_concurrent", p.cfg.MaxConcurrent).
			Int("max_retries", p.cfg.MaxRetries).
			Msg("fetch pool started")
		close(p.ready)
	})
}

// Ready returns a channel closed once the pool is started.
func (p *Pool[T]) Ready() <-chan struct{} {
	return p.ready
}

// Done returns a channel closed once the pool is stopped and every driver returned.
func (p *Pool[T]) Done() <-chan struct{} {
	return p.done
}

// Results returns the stream of terminal outcomes. It is closed by Stop.
func (p *Pool[T]) Results() <-chan Outcome[T] {
	return p.results
}

// Submit hands a task to the pool, blocking until a concurrency slot is free.
//
// Returns ErrDuplicateTask if a task with the same key is active,
// ErrPoolStopped if the pool stopped before the task could be accepted, and
// ErrPoolCancelled if the pool context ended first.
func (p *Pool[T]) Submit(task *fetch.Task[T]) error {
	ctx, err := p.admit(task.Key())
	if err != nil {
		return err
	}

	if err := p.slots.Acquire(ctx, 1); err != nil {
		if p.isStopped() {
			return ErrPoolStopped
		}
		return fmt.Errorf("%w: acquire slot for %s: %w", ErrPoolCancelled, task.Key(), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		p.slots.Release(1)
		return ErrPoolStopped
	}
	if err := p.ctx.Err(); err != nil {
		p.slots.Release(1)
		return fmt.Errorf("%w: %w", ErrPoolCancelled, err)
	}
	if _, ok := p.active[task.Key()]; ok {
		p.slots.Release(1)
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Key())
	}

	taskCtx, cancel := context.WithCancel(p.ctx)
	p.active[task.Key()] = &entry[T]{task: task, cancel: cancel}
	p.metrics.active.Inc()
	p.wg.Add(1)
	go p.drive(taskCtx, cancel, task)

	return nil
}

// admit checks that the pool can accept a task with the given key and
// returns the pool context.
func (p *Pool[T]) admit(key string) (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.stopped:
		return nil, ErrPoolStopped
	case p.ctx == nil:
		return nil, ErrPoolNotStarted
	case p.ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %w", ErrPoolCancelled, p.ctx.Err())
	}
	if _, ok := p.active[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, key)
	}
	return p.ctx, nil
}

// Cancel cancels the active task with the given key. Returns false if no such
// task is active.
func (p *Pool[T]) Cancel(key string) bool {
	p.mu.Lock()
	e, ok := p.active[key]
	p.mu.Unlock()

	if !ok {
		return false
	}
	e.task.Cancel()
	e.cancel()
	return true
}

// CancelAll cancels every active task.
func (p *Pool[T]) CancelAll() {
	p.mu.Lock()
	entries := make([]*entry[T], 0, len(p.active))
	for _, e := range p.active {
		entries = append(entries, e)
	}
	p.mu.Unlock()

	for _, e := range entries {
		e.task.Cancel()
		e.cancel()
	}
}

// Active returns the number of tasks currently driven by the pool.
func (p *Pool[T]) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.active)
}

// Stop cancels every task, waits for their drivers to return and closes the
// outcome stream. Outcomes not consumed by then are dropped. Stop is idempotent.
func (p *Pool[T]) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		cancel := p.cancel
		p.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		close(p.halt)
		p.wg.Wait()
		close(p.results)

		p.logger.Info().Msg("fetch pool stopped")
		close(p.done)
	})
}

func (p *Pool[T]) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stopped
}

// drive runs the task until it reaches a terminal result and emits the outcome.
func (p *Pool[T]) drive(ctx context.Context, cancel context.CancelFunc, task *fetch.Task[T]) {
	defer p.wg.Done()
	defer cancel()

	result := p.execute(ctx, task)

	p.mu.Lock()
	delete(p.active, task.Key())
	p.mu.Unlock()
	p.metrics.active.Dec()
	p.slots.Release(1)

	outcome := Outcome[T]{
		Key:          task.Key(),
		Result:       result,
		Retries:      task.NumberOfRetries(),
		QueriedPeers: task.QueriedPeers(),
	}
	p.logger.Info().
		Str(model.LogTask, outcome.Key).
		Str(model.LogStatus, result.Status().String()).
		Int(model.LogRetries, outcome.Retries).
		Int("queried_peers", len(outcome.QueriedPeers)).
		Msg("task finished")
	p.metrics.outcome(result.Status())
	p.emit(outcome)
}

// execute re-runs the task until its result is terminal under the pool policy.
func (p *Pool[T]) execute(ctx context.Context, task *fetch.Task[T]) fetch.Result[T] {
	logger := p.logger.With().Str(model.LogTask, task.Key()).Logger()

	noPeers := &backoff.ExponentialBackOff{
		InitialInterval:     p.cfg.NoPeersInitialBackoff,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         p.cfg.NoPeersMaxBackoff,
		MaxElapsedTime:      p.cfg.NoPeersMaxWait,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	noPeers.Reset()

	for {
		result := p.run(ctx, task)
		p.observe(task.Key(), result.Status())

		var wait time.Duration
		switch result.Status() {
		case fetch.StatusSuccessful, fetch.StatusCancelled:
			return result

		case fetch.StatusFetchFailed:
			noPeers.Reset()
			if task.NumberOfRetries() >= p.cfg.MaxRetries {
				logger.Debug().Int(model.LogRetries, task.NumberOfRetries()).Msg("retry ceiling reached")
				return result
			}
			wait = p.cfg.RetryDelay

		case fetch.StatusNoAvailablePeers:
			wait = noPeers.NextBackOff()
			if wait == backoff.Stop {
				logger.Debug().Dur("waited", noPeers.GetElapsedTime()).Msg("gave up waiting for peers")
				return result
			}
			logger.Debug().Dur(model.LogBackoff, wait).Msg("no available peers, backing off")
		}

		if !sleep(ctx, wait) {
			task.Cancel()
			result = fetch.Cancelled[T]()
			p.observe(task.Key(), result.Status())
			return result
		}
	}
}

// run performs one run of the task, reporting StatusCancelled as soon as ctx ends.
func (p *Pool[T]) run(ctx context.Context, task *fetch.Task[T]) fetch.Result[T] {
	if ctx.Err() != nil {
		task.Cancel()
	}

	select {
	case result := <-task.Run(ctx):
		if result.Status() == fetch.StatusFetchFailed && ctx.Err() != nil {
			task.Cancel()
			return fetch.Cancelled[T]()
		}
		return result
	case <-ctx.Done():
		task.Cancel()
		return fetch.Cancelled[T]()
	}
}

func (p *Pool[T]) observe(key string, status fetch.Status) {
	p.metrics.attempt(status)
	if p.observer != nil {
		p.observer(key, status)
	}
}

// emit delivers the outcome unless the pool is stopping and nobody reads it.
func (p *Pool[T]) emit(outcome Outcome[T]) {
	select {
	case p.results <- outcome:
		return
	default:
	}

	select {
	case p.results <- outcome:
	case <-p.halt:
		p.logger.Warn().
			Str(model.LogTask, outcome.Key).
			Str(model.LogStatus, outcome.Result.Status().String()).
			Msg("dropping outcome of stopped pool")
	}
}

// sleep waits for d or until ctx ends. Returns false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

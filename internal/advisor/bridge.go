package advisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bookery/backend/internal/logger"
	"github.com/bookery/backend/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// job carries one advisor request through the worker pool.
type job struct {
	ctx    context.Context
	system string
	prompt string
	result chan jobResult
}

type jobResult struct {
	text string
	err  error
}

// Bridge runs advisor requests through a bounded worker pool with a
// per-request timeout and a circuit breaker around the upstream call.
// When the queue is full or the breaker is open, Advise fails fast so
// callers can fall back to a deterministic strategy.
type Bridge struct {
	client  Client
	timeout time.Duration

	jobs    chan *job
	workers int
	breaker *gobreaker.CircuitBreaker[string]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBridge creates an advisor bridge. workers and queueSize bound the
// concurrency and backlog; timeout bounds each upstream round trip.
func NewBridge(client Client, workers, queueSize int, timeout time.Duration) *Bridge {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "advisor",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("Advisor circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Bridge{
		client:  client,
		timeout: timeout,
		jobs:    make(chan *job, queueSize),
		workers: workers,
		breaker: breaker,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing jobs with the worker pool
func (b *Bridge) Start() {
	logger.Log.Info("Starting advisor bridge", zap.Int("workers", b.workers))

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}
}

// Stop gracefully shuts down the bridge and waits for workers to exit.
// The jobs channel is left open so a concurrent Advise can never send on
// a closed channel; workers exit on the bridge context instead.
func (b *Bridge) Stop() {
	b.cancel()
	b.wg.Wait()
}

// Advise submits a request and waits for the result. It returns
// ErrUnavailable when the queue is full or the breaker is open, and
// ErrTimeout when the upstream call exceeds the configured timeout.
func (b *Bridge) Advise(ctx context.Context, system, prompt string) (string, error) {
	if b.ctx.Err() != nil {
		return "", ErrUnavailable
	}

	j := &job{
		ctx:    ctx,
		system: system,
		prompt: prompt,
		result: make(chan jobResult, 1),
	}

	select {
	case b.jobs <- j:
		metrics.Get().AdvisorQueueDepth.Set(float64(len(b.jobs)))
	default:
		metrics.RecordAdvisorRequest("queue_full", 0)
		return "", fmt.Errorf("%w: queue full", ErrUnavailable)
	}

	select {
	case res := <-j.result:
		return res.text, res.err
	case <-ctx.Done():
		return "", ErrTimeout
	case <-b.ctx.Done():
		return "", ErrUnavailable
	}
}

// worker processes advisor jobs from the queue
func (b *Bridge) worker(workerID int) {
	defer b.wg.Done()

	for {
		select {
		case j := <-b.jobs:
			b.process(workerID, j)
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *Bridge) process(workerID int, j *job) {
	metrics.Get().AdvisorQueueDepth.Set(float64(len(b.jobs)))

	start := time.Now()

	ctx, cancel := context.WithTimeout(j.ctx, b.timeout)
	defer cancel()

	text, err := b.breaker.Execute(func() (string, error) {
		return b.client.Complete(ctx, j.system, j.prompt)
	})
	elapsed := time.Since(start)

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "breaker_open"
		err = fmt.Errorf("%w: circuit open", ErrUnavailable)
	case errors.Is(err, ErrTimeout), errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome = "timeout"
		err = ErrTimeout
	default:
		outcome = "error"
	}
	metrics.RecordAdvisorRequest(outcome, elapsed.Seconds())

	if err != nil {
		logger.Log.Warn("Advisor request failed",
			zap.Int("worker_id", workerID),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		logger.Log.Debug("Advisor request completed",
			zap.Int("worker_id", workerID),
			zap.Duration("elapsed", elapsed),
		)
	}

	j.result <- jobResult{text: text, err: err}
}

// State reports the breaker state for health checks
func (b *Bridge) State() string {
	return b.breaker.State().String()
}

package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/usecase"
)

var (
	// ErrQueueFull is returned when the queue cannot take another job.
	ErrQueueFull = errors.New("compensation queue is full")
	// ErrQueueClosed is returned after Stop.
	ErrQueueClosed = errors.New("compensation queue is closed")
)

// CompensationHandler performs one compensation attempt.
type CompensationHandler func(ctx context.Context, job usecase.CompensationJob) error

// CompensationQueue retries compensation jobs in the background until they
// succeed or the service stops.
type CompensationQueue struct {
	jobs     chan usecase.CompensationJob
	interval time.Duration
	logger   *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

// NewCompensationQueue constructs a queue holding up to size jobs.
func NewCompensationQueue(size int, interval time.Duration, logger *zap.Logger) *CompensationQueue {
	if size <= 0 {
		size = 1
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompensationQueue{
		jobs:     make(chan usecase.CompensationJob, size),
		interval: interval,
		logger:   logger,
	}
}

// Schedule enqueues job without blocking.
func (q *CompensationQueue) Schedule(job usecase.CompensationJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		q.logger.Info("compensation scheduled", zap.String("withdrawal_id", job.WithdrawalID.String()))
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the retry loop.
func (q *CompensationQueue) Start(ctx context.Context, handler CompensationHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.wg.Add(1)
	go q.run(runCtx, handler)
}

// Stop halts retries and logs every job left unfinished.
func (q *CompensationQueue) Stop() {
	q.mu.Lock()
	q.closed = true
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.mu.Unlock()

	q.wg.Wait()

	for {
		select {
		case job := <-q.jobs:
			q.logUnfinished(job)
		default:
			return
		}
	}
}

// Len returns the number of jobs waiting.
func (q *CompensationQueue) Len() int {
	return len(q.jobs)
}

func (q *CompensationQueue) run(ctx context.Context, handler CompensationHandler) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			if ctx.Err() != nil {
				q.logUnfinished(job)
				return
			}
			q.process(ctx, handler, job)
		}
	}
}

func (q *CompensationQueue) process(ctx context.Context, handler CompensationHandler, job usecase.CompensationJob) {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(q.interval),
		backoff.WithMaxInterval(100*q.interval),
		backoff.WithMaxElapsedTime(0),
	)
	err := backoff.Retry(func() error {
		err := handler(ctx, job)
		if err != nil && !usecase.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))

	switch {
	case err == nil:
		q.logger.Info("scheduled compensation settled", zap.String("withdrawal_id", job.WithdrawalID.String()))
	case ctx.Err() != nil:
		q.logUnfinished(job)
	default:
		q.logger.Error("scheduled compensation abandoned, manual reconciliation required",
			zap.String("withdrawal_id", job.WithdrawalID.String()),
			zap.String("user_id", job.UserID.String()),
			zap.Int64("amount", job.Amount),
			zap.Error(err))
	}
}

func (q *CompensationQueue) logUnfinished(job usecase.CompensationJob) {
	q.logger.Error("compensation unfinished at shutdown, manual reconciliation required",
		zap.String("withdrawal_id", job.WithdrawalID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Int64("amount", job.Amount),
		zap.String("reason", job.Reason))
}

var _ usecase.CompensationScheduler = (*CompensationQueue)(nil)

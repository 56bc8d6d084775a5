package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/usecase"
)

// LedgerFacade exposes the subset of application functionality required by the reconciler.
type LedgerFacade interface {
	Users(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*model.ReconciliationReport, error)
	OrphanedWithdrawals(ctx context.Context, olderThan time.Time, limit int) ([]model.Transaction, error)
	Compensate(ctx context.Context, job usecase.CompensationJob) (*model.WithdrawalRequest, error)
}

// Reconciler periodically recomputes every balance from the ledger and
// returns reservations whose submission never finished.
type Reconciler struct {
	facade      LedgerFacade
	interval    time.Duration
	batchSize   int
	workers     int
	orphanGrace time.Duration
	logger      *zap.Logger

	jobs   chan uuid.UUID
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReconciler constructs the reconciliation worker pool.
func NewReconciler(facade LedgerFacade, interval time.Duration, batchSize, workers int, orphanGrace time.Duration, logger *zap.Logger) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		facade:      facade,
		interval:    interval,
		batchSize:   batchSize,
		workers:     workers,
		orphanGrace: orphanGrace,
		logger:      logger,
		jobs:        make(chan uuid.UUID, batchSize*workers),
	}
}

// Start launches background reconciliation.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for the dispatcher and all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOrphans(ctx)
			r.scanUsers(ctx)
		}
	}
}

func (r *Reconciler) scanUsers(ctx context.Context) {
	after := uuid.Nil
	for {
		users, err := r.facade.Users(ctx, after, r.batchSize)
		if err != nil {
			r.logger.Error("list users for reconciliation failed", zap.Error(err))
			return
		}
		for _, user := range users {
			select {
			case <-ctx.Done():
				return
			case r.jobs <- user:
			}
		}
		if len(users) < r.batchSize {
			return
		}
		after = users[len(users)-1]
	}
}

func (r *Reconciler) sweepOrphans(ctx context.Context) {
	orphans, err := r.facade.OrphanedWithdrawals(ctx, time.Now().Add(-r.orphanGrace), r.batchSize)
	if err != nil {
		r.logger.Error("list orphaned withdrawals failed", zap.Error(err))
		return
	}
	for _, entry := range orphans {
		job := usecase.OrphanJob(entry)
		r.logger.Warn("returning orphaned reservation",
			zap.String("withdrawal_id", job.WithdrawalID.String()),
			zap.String("user_id", job.UserID.String()),
			zap.Int64("amount", job.Amount))
		if _, err := r.facade.Compensate(ctx, job); err != nil {
			r.logger.Error("orphan compensation failed",
				zap.String("withdrawal_id", job.WithdrawalID.String()),
				zap.Error(err))
		}
	}
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case user, ok := <-r.jobs:
			if !ok {
				return
			}
			r.reconcile(ctx, user)
		}
	}
}

// reconcile checks a drifted user a second time so that a write landing
// between the two reads is not reported.
func (r *Reconciler) reconcile(ctx context.Context, user uuid.UUID) {
	var report *model.ReconciliationReport
	for attempt := 0; attempt < 2; attempt++ {
		var err error
		report, err = r.facade.Reconcile(ctx, user)
		if err != nil {
			r.logger.Error("reconcile balance failed", zap.String("user_id", user.String()), zap.Error(err))
			return
		}
		if report.Drift() == 0 {
			return
		}
	}
	r.logger.Error("balance drift detected",
		zap.String("user_id", user.String()),
		zap.Int64("balance", report.Balance),
		zap.Int64("ledger_sum", report.LedgerSum),
		zap.Int64("drift", report.Drift()))
}

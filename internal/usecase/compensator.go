package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/domain/repository"
)

// SystemActor marks rows processed by the service itself.
const SystemActor = "system"

// Compensator returns reserved points exactly once per withdrawal.
type Compensator struct {
	tx          repository.Transactor
	balances    repository.BalanceStore
	log         repository.TransactionLog
	withdrawals repository.WithdrawalRepository
	scheduler   CompensationScheduler
	events      EventEmitter
	logger      *zap.Logger
	policy      Policy
}

// CompensatorParams groups Compensator dependencies.
type CompensatorParams struct {
	Tx          repository.Transactor
	Balances    repository.BalanceStore
	Log         repository.TransactionLog
	Withdrawals repository.WithdrawalRepository
	Scheduler   CompensationScheduler
	Events      EventEmitter
	Logger      *zap.Logger
	Policy      Policy
}

// NewCompensator constructs Compensator.
func NewCompensator(p CompensatorParams) *Compensator {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compensator{
		tx:          p.Tx,
		balances:    p.Balances,
		log:         p.Log,
		withdrawals: p.Withdrawals,
		scheduler:   p.Scheduler,
		events:      p.Events,
		logger:      logger,
		policy:      p.Policy,
	}
}

// Compensate settles job, retrying transient failures until the
// compensation timeout elapses. Caller cancellation does not abort it.
// When the budget runs out the job is handed to the scheduler and
// ErrCompensationPending is returned.
func (c *Compensator) Compensate(ctx context.Context, job CompensationJob) (*model.WithdrawalRequest, error) {
	ctx = context.WithoutCancel(ctx)
	if c.policy.CompensationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.CompensationTimeout)
		defer cancel()
	}

	b := c.policy.backOff()
	b.MaxElapsedTime = 0

	var (
		result    *model.WithdrawalRequest
		permanent error
	)
	err := backoff.Retry(func() error {
		req, err := c.Settle(ctx, job)
		switch {
		case err == nil:
			result = req
			return nil
		case Retryable(err):
			c.logger.Warn("compensation attempt failed",
				zap.String("withdrawal_id", job.WithdrawalID.String()),
				zap.Error(err))
			return err
		default:
			permanent = err
			return backoff.Permanent(err)
		}
	}, backoff.WithContext(b, ctx))
	if err == nil {
		return result, nil
	}
	if permanent != nil {
		return nil, permanent
	}

	c.logger.Error("compensation deferred to background queue",
		zap.String("withdrawal_id", job.WithdrawalID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Int64("amount", job.Amount),
		zap.Error(err))
	if c.scheduler == nil {
		return nil, domainErrors.ErrCompensationPending
	}
	if schedErr := c.scheduler.Schedule(job); schedErr != nil {
		c.logger.Error("compensation could not be scheduled, manual reconciliation required",
			zap.String("withdrawal_id", job.WithdrawalID.String()),
			zap.Error(schedErr))
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrCompensationPending, schedErr)
	}
	return nil, domainErrors.ErrCompensationPending
}

// Handle performs one attempt for the background queue.
func (c *Compensator) Handle(ctx context.Context, job CompensationJob) error {
	_, err := c.Settle(ctx, job)
	return err
}

// Settle performs a single compensation attempt in one storage transaction.
// It returns the request row, which is nil when the submission never
// created one.
func (c *Compensator) Settle(ctx context.Context, job CompensationJob) (*model.WithdrawalRequest, error) {
	var (
		req              *model.WithdrawalRequest
		refunded, closed bool
	)
	err := c.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		req, refunded, closed = nil, false, false

		locked, err := c.withdrawals.GetForUpdate(ctx, job.WithdrawalID)
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
		case err != nil:
			return err
		default:
			req = locked
		}

		userID, amount := job.UserID, job.Amount
		if req != nil {
			if req.Status == model.WithdrawalStatusCompleted {
				return fmt.Errorf("%w: withdrawal %s is already paid out", domainErrors.ErrInvalidTransition, req.ID)
			}
			userID, amount = req.UserID, req.Amount
		}
		if amount <= 0 {
			return domainErrors.ErrInvalidAmount
		}

		done, err := c.log.HasEntry(ctx, job.WithdrawalID, model.TransactionKindRefund)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if !done {
			if err := c.refund(ctx, job, userID, amount, now); err != nil {
				return err
			}
			refunded = true
		}

		// A refund recorded before the request row became visible still
		// has to close the request.
		if req != nil && req.Status != model.WithdrawalStatusRejected {
			prev := req.Status
			updated := *req
			updated.Status = model.WithdrawalStatusRejected
			updated.ProcessedAt = &now
			updated.ProcessedBy = processedBy(job.ProcessedBy)
			updated.Notes = job.Reason
			ok, err := c.withdrawals.UpdateStatus(ctx, &updated, prev)
			if err != nil {
				return err
			}
			if !ok {
				return domainErrors.ErrConcurrentModification
			}
			req = &updated
			closed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if refunded {
		c.logger.Info("withdrawal compensated",
			zap.String("withdrawal_id", job.WithdrawalID.String()),
			zap.String("reason", job.Reason))
	}
	if closed {
		if !refunded {
			c.logger.Warn("closed withdrawal refunded before its request was recorded",
				zap.String("withdrawal_id", job.WithdrawalID.String()))
		}
		if c.events != nil {
			c.events.Emit(model.NewWithdrawalEvent(model.EventWithdrawalRejected, req))
		}
	}
	return req, nil
}

// refund returns amount to userID and records the refund entry, adding the
// withdraw entry first when the submission never recorded it.
func (c *Compensator) refund(ctx context.Context, job CompensationJob, userID uuid.UUID, amount int64, now time.Time) error {
	withdrawalID := job.WithdrawalID
	debited, err := c.log.HasEntry(ctx, withdrawalID, model.TransactionKindWithdraw)
	if err != nil {
		return err
	}
	if !debited {
		if err := c.log.Append(ctx, &model.Transaction{
			UserID:              userID,
			Amount:              -amount,
			Kind:                model.TransactionKindWithdraw,
			Description:         "reservation recorded during compensation",
			RelatedWithdrawalID: &withdrawalID,
			CreatedAt:           now,
		}); err != nil {
			return err
		}
	}

	if err := c.balances.Credit(ctx, userID, amount); err != nil {
		return err
	}
	return c.log.Append(ctx, &model.Transaction{
		UserID:              userID,
		Amount:              amount,
		Kind:                model.TransactionKindRefund,
		Description:         refundDescription(job.Reason),
		RelatedWithdrawalID: &withdrawalID,
		CreatedAt:           now,
	})
}

// Refunded reports whether the withdrawal already has a refund entry.
func (c *Compensator) Refunded(ctx context.Context, withdrawalID uuid.UUID) (bool, error) {
	return c.log.HasEntry(ctx, withdrawalID, model.TransactionKindRefund)
}

// Retryable reports whether a failed compensation attempt may succeed later.
func Retryable(err error) bool {
	return errors.Is(err, domainErrors.ErrPersistence) ||
		errors.Is(err, domainErrors.ErrAlreadyExists) ||
		errors.Is(err, domainErrors.ErrConcurrentModification)
}

// Orphans lists withdraw entries older than olderThan that have neither a
// request row nor a refund.
func (c *Compensator) Orphans(ctx context.Context, olderThan time.Time, limit int) ([]model.Transaction, error) {
	return c.log.ListOrphanedWithdrawals(ctx, olderThan, limit)
}

// OrphanJob builds the compensation job for an orphaned withdraw entry.
func OrphanJob(entry model.Transaction) CompensationJob {
	job := CompensationJob{
		UserID:      entry.UserID,
		Amount:      -entry.Amount,
		Reason:      "orphaned reservation",
		ProcessedBy: SystemActor,
	}
	if entry.RelatedWithdrawalID != nil {
		job.WithdrawalID = *entry.RelatedWithdrawalID
	}
	return job
}

func refundDescription(reason string) string {
	if reason == "" {
		return "refund"
	}
	return "refund: " + reason
}

func processedBy(actor string) string {
	if actor == "" {
		return SystemActor
	}
	return actor
}

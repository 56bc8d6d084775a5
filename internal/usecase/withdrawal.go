package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/domain/repository"
)

const defaultQueueLimit = 100

// WithdrawalUseCase drives the withdrawal state machine.
type WithdrawalUseCase struct {
	balances    repository.BalanceStore
	log         repository.TransactionLog
	withdrawals repository.WithdrawalRepository
	compensator *Compensator
	events      EventEmitter
	logger      *zap.Logger
	policy      Policy
}

// WithdrawalParams groups WithdrawalUseCase dependencies.
type WithdrawalParams struct {
	Balances    repository.BalanceStore
	Log         repository.TransactionLog
	Withdrawals repository.WithdrawalRepository
	Compensator *Compensator
	Events      EventEmitter
	Logger      *zap.Logger
	Policy      Policy
}

// NewWithdrawalUseCase constructs WithdrawalUseCase.
func NewWithdrawalUseCase(p WithdrawalParams) *WithdrawalUseCase {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WithdrawalUseCase{
		balances:    p.Balances,
		log:         p.Log,
		withdrawals: p.Withdrawals,
		compensator: p.Compensator,
		events:      p.Events,
		logger:      logger,
		policy:      p.Policy,
	}
}

// Submit reserves amount and opens a pending request. A repeated
// idempotency key returns the first request with ErrDuplicateSubmission.
func (u *WithdrawalUseCase) Submit(ctx context.Context, userID uuid.UUID, amount int64, bank model.BankDetails, idempotencyKey string) (*model.WithdrawalRequest, error) {
	if err := ValidateSubmission(amount, bank, idempotencyKey); err != nil {
		return nil, err
	}

	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
		existing, err := u.withdrawals.FindByIdempotencyKey(ctx, userID, idempotencyKey)
		switch {
		case err == nil:
			return existing, domainErrors.ErrDuplicateSubmission
		case !errors.Is(err, domainErrors.ErrNotFound):
			return nil, err
		}
	}

	ok, err := u.balances.TryDebit(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainErrors.ErrInsufficientBalance
	}

	now := time.Now().UTC()
	req := &model.WithdrawalRequest{
		ID:             uuid.New(),
		UserID:         userID,
		Amount:         amount,
		Bank:           bank,
		Status:         model.WithdrawalStatusPending,
		IdempotencyKey: key,
		CreatedAt:      now,
	}
	entry := &model.Transaction{
		UserID:              userID,
		Amount:              -amount,
		Kind:                model.TransactionKindWithdraw,
		Description:         "withdrawal to " + bank.BankName,
		RelatedWithdrawalID: &req.ID,
		CreatedAt:           now,
	}

	err = u.policy.retryPersistence(ctx, func() error {
		err := u.log.Append(ctx, entry)
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, u.rollback(ctx, req, "transaction log append failed", err)
	}

	err = u.policy.retryPersistence(ctx, func() error {
		err := u.withdrawals.Create(ctx, req)
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			if stored, getErr := u.withdrawals.Get(ctx, req.ID); getErr == nil && stored.UserID == userID {
				return nil
			}
		}
		return err
	})
	if err != nil {
		if key != nil && errors.Is(err, domainErrors.ErrAlreadyExists) {
			if rbErr := u.rollback(ctx, req, "duplicate submission", err); errors.Is(rbErr, domainErrors.ErrCompensationPending) {
				return nil, rbErr
			}
			existing, findErr := u.withdrawals.FindByIdempotencyKey(ctx, userID, idempotencyKey)
			if findErr != nil {
				return nil, findErr
			}
			return existing, domainErrors.ErrDuplicateSubmission
		}
		return nil, u.rollback(ctx, req, "withdrawal request creation failed", err)
	}

	// The orphan sweep may have returned the reservation while the request
	// row was still being written.
	refunded, err := u.compensator.Refunded(ctx, req.ID)
	if err != nil {
		u.logger.Warn("refund check after submission failed",
			zap.String("withdrawal_id", req.ID.String()),
			zap.Error(err))
	}
	if refunded {
		cause := fmt.Errorf("%w: reservation for withdrawal %s was returned during submission",
			domainErrors.ErrConcurrentModification, req.ID)
		return nil, u.rollback(ctx, req, "reservation returned during submission", cause)
	}

	u.logger.Info("withdrawal submitted",
		zap.String("withdrawal_id", req.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int64("amount", amount))
	u.emit(model.EventWithdrawalSubmitted, req)
	return req, nil
}

// rollback compensates a submission whose debit succeeded but whose
// bookkeeping failed. It returns cause unless compensation is still pending.
func (u *WithdrawalUseCase) rollback(ctx context.Context, req *model.WithdrawalRequest, reason string, cause error) error {
	u.logger.Warn("rolling back withdrawal submission",
		zap.String("withdrawal_id", req.ID.String()),
		zap.String("reason", reason),
		zap.Error(cause))
	_, err := u.compensator.Compensate(ctx, CompensationJob{
		WithdrawalID: req.ID,
		UserID:       req.UserID,
		Amount:       req.Amount,
		Reason:       reason,
		ProcessedBy:  SystemActor,
	})
	if err != nil {
		return fmt.Errorf("%w (submission failed: %v)", err, cause)
	}
	return cause
}

// Approve moves a pending request to approved.
func (u *WithdrawalUseCase) Approve(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	return u.transition(ctx, id, model.WithdrawalStatusPending, model.WithdrawalStatusApproved, "", model.EventWithdrawalApproved)
}

// Complete records the external payout of an approved request.
func (u *WithdrawalUseCase) Complete(ctx context.Context, id uuid.UUID, processedBy string) (*model.WithdrawalRequest, error) {
	return u.transition(ctx, id, model.WithdrawalStatusApproved, model.WithdrawalStatusCompleted, processedBy, model.EventWithdrawalCompleted)
}

func (u *WithdrawalUseCase) transition(ctx context.Context, id uuid.UUID, from, to model.WithdrawalStatus, actor string, event model.EventType) (*model.WithdrawalRequest, error) {
	req, err := u.withdrawals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s", domainErrors.ErrInvalidTransition, req.Status, to)
	}
	refunded, err := u.compensator.Refunded(ctx, id)
	if err != nil {
		return nil, err
	}
	if refunded {
		// Close the request so it pairs with its refund.
		if _, err := u.compensator.Compensate(ctx, jobFor(req, SystemActor, "reservation already refunded")); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: withdrawal %s was already refunded", domainErrors.ErrInvalidTransition, id)
	}

	updated := *req
	updated.Status = to
	if to.Terminal() {
		now := time.Now().UTC()
		updated.ProcessedAt = &now
		updated.ProcessedBy = processedBy(actor)
	}
	ok, err := u.withdrawals.UpdateStatus(ctx, &updated, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainErrors.ErrConcurrentModification
	}

	u.logger.Info("withdrawal status changed",
		zap.String("withdrawal_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	u.emit(event, &updated)
	return &updated, nil
}

// Reject refunds and closes a pending or approved request. A request that
// is already terminal is returned unchanged.
func (u *WithdrawalUseCase) Reject(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error) {
	req, err := u.withdrawals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return req, nil
	}

	result, err := u.compensator.Compensate(ctx, jobFor(req, processedBy, notes))
	if errors.Is(err, domainErrors.ErrInvalidTransition) {
		return u.withdrawals.Get(ctx, id)
	}
	return result, err
}

// Refund is the standalone admin refund. It shares the compensation path
// with Reject so a request is refunded at most once.
func (u *WithdrawalUseCase) Refund(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error) {
	req, err := u.withdrawals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.compensator.Compensate(ctx, jobFor(req, processedBy, notes))
}

// Get returns a single request.
func (u *WithdrawalUseCase) Get(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	return u.withdrawals.Get(ctx, id)
}

// ListForUser returns the user's requests, newest first.
func (u *WithdrawalUseCase) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error) {
	return u.withdrawals.ListByUser(ctx, userID)
}

// ListByStatus returns the admin queue for status, oldest first.
func (u *WithdrawalUseCase) ListByStatus(ctx context.Context, status model.WithdrawalStatus, limit int) ([]model.WithdrawalRequest, error) {
	if !status.Valid() {
		return nil, domainErrors.NewValidationError("status", "unknown status")
	}
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	return u.withdrawals.ListByStatus(ctx, status, limit)
}

func (u *WithdrawalUseCase) emit(t model.EventType, req *model.WithdrawalRequest) {
	if u.events != nil {
		u.events.Emit(model.NewWithdrawalEvent(t, req))
	}
}

func jobFor(req *model.WithdrawalRequest, actor, notes string) CompensationJob {
	reason := notes
	if reason == "" {
		reason = "rejected by " + processedBy(actor)
	}
	return CompensationJob{
		WithdrawalID: req.ID,
		UserID:       req.UserID,
		Amount:       req.Amount,
		Reason:       reason,
		ProcessedBy:  actor,
	}
}

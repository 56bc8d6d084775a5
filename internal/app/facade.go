package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/pkg/auth"
	"github.com/polkiloo/pointledger/internal/usecase"
)

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type LedgerFacade struct {
	tokens      auth.Strategy
	balances    *usecase.BalanceUseCase
	withdrawals *usecase.WithdrawalUseCase
	compensator *usecase.Compensator
	health      HealthChecker
}

func NewLedgerFacade(tokens auth.Strategy, balances *usecase.BalanceUseCase, withdrawals *usecase.WithdrawalUseCase, compensator *usecase.Compensator, health HealthChecker) *LedgerFacade {
	return &LedgerFacade{
		tokens:      tokens,
		balances:    balances,
		withdrawals: withdrawals,
		compensator: compensator,
		health:      health,
	}
}

func (f *LedgerFacade) ParseToken(token string) (auth.Principal, error) {
	return f.tokens.ParseToken(token)
}

// Balance reports zero points for users without an account yet.
func (f *LedgerFacade) Balance(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	balance, err := f.balances.Balance(ctx, userID)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return &model.Balance{UserID: userID}, nil
	}
	return balance, err
}

func (f *LedgerFacade) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.Transaction, error) {
	entries, err := f.balances.Transactions(ctx, userID, limit)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, nil
	}
	return entries, err
}

func (f *LedgerFacade) SubmitWithdrawal(ctx context.Context, userID uuid.UUID, amount int64, bank model.BankDetails, idempotencyKey string) (*model.WithdrawalRequest, error) {
	return f.withdrawals.Submit(ctx, userID, amount, bank, idempotencyKey)
}

func (f *LedgerFacade) UserWithdrawals(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error) {
	return f.withdrawals.ListForUser(ctx, userID)
}

func (f *LedgerFacade) WithdrawalQueue(ctx context.Context, status model.WithdrawalStatus, limit int) ([]model.WithdrawalRequest, error) {
	return f.withdrawals.ListByStatus(ctx, status, limit)
}

func (f *LedgerFacade) ApproveWithdrawal(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	return f.withdrawals.Approve(ctx, id)
}

func (f *LedgerFacade) CompleteWithdrawal(ctx context.Context, id uuid.UUID, processedBy string) (*model.WithdrawalRequest, error) {
	return f.withdrawals.Complete(ctx, id, processedBy)
}

func (f *LedgerFacade) RejectWithdrawal(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error) {
	return f.withdrawals.Reject(ctx, id, processedBy, notes)
}

func (f *LedgerFacade) RefundWithdrawal(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error) {
	return f.withdrawals.Refund(ctx, id, processedBy, notes)
}

func (f *LedgerFacade) OpenAccount(ctx context.Context, userID uuid.UUID) error {
	return f.balances.Open(ctx, userID)
}

func (f *LedgerFacade) Earn(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error) {
	return f.balances.Earn(ctx, userID, amount, description)
}

func (f *LedgerFacade) Adjust(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error) {
	return f.balances.Adjust(ctx, userID, amount, description)
}

func (f *LedgerFacade) Reconcile(ctx context.Context, userID uuid.UUID) (*model.ReconciliationReport, error) {
	return f.balances.Reconcile(ctx, userID)
}

func (f *LedgerFacade) HealthCheck(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}

func (f *LedgerFacade) Users(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return f.balances.Users(ctx, after, limit)
}

func (f *LedgerFacade) OrphanedWithdrawals(ctx context.Context, olderThan time.Time, limit int) ([]model.Transaction, error) {
	return f.compensator.Orphans(ctx, olderThan, limit)
}

func (f *LedgerFacade) Compensate(ctx context.Context, job usecase.CompensationJob) (*model.WithdrawalRequest, error) {
	return f.compensator.Compensate(ctx, job)
}

package test

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
	pkgAuth "github.com/polkiloo/pointledger/internal/pkg/auth"
)

// TokenParserStub returns a fixed principal or error.
type TokenParserStub struct {
	Principal pkgAuth.Principal
	Err       error
}

// ParseToken implements the middleware token parser.
func (s TokenParserStub) ParseToken(string) (pkgAuth.Principal, error) {
	return s.Principal, s.Err
}

// LedgerFacadeStub provides configurable behaviour for HTTP handler tests.
// Unset functions return empty successful results.
type LedgerFacadeStub struct {
	TokenParserStub

	BalanceFn      func(ctx context.Context, userID uuid.UUID) (*model.Balance, error)
	TransactionsFn func(ctx context.Context, userID uuid.UUID, limit int) ([]model.Transaction, error)
	SubmitFn       func(ctx context.Context, userID uuid.UUID, amount int64, bank model.BankDetails, key string) (*model.WithdrawalRequest, error)
	UserListFn     func(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error)
	QueueFn        func(ctx context.Context, status model.WithdrawalStatus, limit int) ([]model.WithdrawalRequest, error)
	ApproveFn      func(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error)
	CompleteFn     func(ctx context.Context, id uuid.UUID, processedBy string) (*model.WithdrawalRequest, error)
	RejectFn       func(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error)
	RefundFn       func(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error)
	OpenFn         func(ctx context.Context, userID uuid.UUID) error
	EarnFn         func(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error)
	AdjustFn       func(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error)
	ReconcileFn    func(ctx context.Context, userID uuid.UUID) (*model.ReconciliationReport, error)
	HealthErr      error
}

func (s LedgerFacadeStub) Balance(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	if s.BalanceFn != nil {
		return s.BalanceFn(ctx, userID)
	}
	return &model.Balance{UserID: userID, UpdatedAt: time.Unix(0, 0).UTC()}, nil
}

func (s LedgerFacadeStub) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.Transaction, error) {
	if s.TransactionsFn != nil {
		return s.TransactionsFn(ctx, userID, limit)
	}
	return nil, nil
}

func (s LedgerFacadeStub) SubmitWithdrawal(ctx context.Context, userID uuid.UUID, amount int64, bank model.BankDetails, key string) (*model.WithdrawalRequest, error) {
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, userID, amount, bank, key)
	}
	return &model.WithdrawalRequest{ID: uuid.New(), UserID: userID, Amount: amount, Bank: bank, Status: model.WithdrawalStatusPending}, nil
}

func (s LedgerFacadeStub) UserWithdrawals(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error) {
	if s.UserListFn != nil {
		return s.UserListFn(ctx, userID)
	}
	return nil, nil
}

func (s LedgerFacadeStub) WithdrawalQueue(ctx context.Context, status model.WithdrawalStatus, limit int) ([]model.WithdrawalRequest, error) {
	if s.QueueFn != nil {
		return s.QueueFn(ctx, status, limit)
	}
	return nil, nil
}

func (s LedgerFacadeStub) ApproveWithdrawal(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	if s.ApproveFn != nil {
		return s.ApproveFn(ctx, id)
	}
	return &model.WithdrawalRequest{ID: id, Status: model.WithdrawalStatusApproved}, nil
}

func (s LedgerFacadeStub) CompleteWithdrawal(ctx context.Context, id uuid.UUID, processedBy string) (*model.WithdrawalRequest, error) {
	if s.CompleteFn != nil {
		return s.CompleteFn(ctx, id, processedBy)
	}
	return &model.WithdrawalRequest{ID: id, Status: model.WithdrawalStatusCompleted, ProcessedBy: processedBy}, nil
}

func (s LedgerFacadeStub) RejectWithdrawal(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error) {
	if s.RejectFn != nil {
		return s.RejectFn(ctx, id, processedBy, notes)
	}
	return &model.WithdrawalRequest{ID: id, Status: model.WithdrawalStatusRejected, ProcessedBy: processedBy, Notes: notes}, nil
}

func (s LedgerFacadeStub) RefundWithdrawal(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error) {
	if s.RefundFn != nil {
		return s.RefundFn(ctx, id, processedBy, notes)
	}
	return &model.WithdrawalRequest{ID: id, Status: model.WithdrawalStatusRejected, ProcessedBy: processedBy, Notes: notes}, nil
}

func (s LedgerFacadeStub) OpenAccount(ctx context.Context, userID uuid.UUID) error {
	if s.OpenFn != nil {
		return s.OpenFn(ctx, userID)
	}
	return nil
}

func (s LedgerFacadeStub) Earn(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error) {
	if s.EarnFn != nil {
		return s.EarnFn(ctx, userID, amount, description)
	}
	return &model.Transaction{ID: uuid.New(), UserID: userID, Amount: amount, Kind: model.TransactionKindEarn, Description: description}, nil
}

func (s LedgerFacadeStub) Adjust(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error) {
	if s.AdjustFn != nil {
		return s.AdjustFn(ctx, userID, amount, description)
	}
	if amount == 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	return &model.Transaction{ID: uuid.New(), UserID: userID, Amount: amount, Kind: model.TransactionKindAdjustment, Description: description}, nil
}

func (s LedgerFacadeStub) Reconcile(ctx context.Context, userID uuid.UUID) (*model.ReconciliationReport, error) {
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, userID)
	}
	return &model.ReconciliationReport{UserID: userID}, nil
}

func (s LedgerFacadeStub) HealthCheck(context.Context) error {
	return s.HealthErr
}

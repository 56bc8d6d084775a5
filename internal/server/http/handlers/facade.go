package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/server/http/middleware"
)

// BalanceFacade provides balance related operations.
type BalanceFacade interface {
	Balance(ctx context.Context, userID uuid.UUID) (*model.Balance, error)
	Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.Transaction, error)
}

// WithdrawalFacade encapsulates user withdrawal operations exposed via HTTP.
type WithdrawalFacade interface {
	SubmitWithdrawal(ctx context.Context, userID uuid.UUID, amount int64, bank model.BankDetails, idempotencyKey string) (*model.WithdrawalRequest, error)
	UserWithdrawals(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error)
}

// AdminFacade groups operator actions.
type AdminFacade interface {
	WithdrawalQueue(ctx context.Context, status model.WithdrawalStatus, limit int) ([]model.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error)
	CompleteWithdrawal(ctx context.Context, id uuid.UUID, processedBy string) (*model.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error)
	RefundWithdrawal(ctx context.Context, id uuid.UUID, processedBy, notes string) (*model.WithdrawalRequest, error)
	OpenAccount(ctx context.Context, userID uuid.UUID) error
	Earn(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error)
	Adjust(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*model.ReconciliationReport, error)
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// LedgerFacade aggregates the full set of operations used across handlers.
type LedgerFacade interface {
	middleware.TokenParser
	BalanceFacade
	WithdrawalFacade
	AdminFacade
	HealthFacade
}

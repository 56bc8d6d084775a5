package usecase

import (
	"context"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/domain/repository"
)

// BalanceUseCase manages balance reads, credits and reconciliation.
type BalanceUseCase struct {
	tx       repository.Transactor
	balances repository.BalanceStore
	log      repository.TransactionLog
}

// NewBalanceUseCase constructs BalanceUseCase.
func NewBalanceUseCase(tx repository.Transactor, b repository.BalanceStore, l repository.TransactionLog) *BalanceUseCase {
	return &BalanceUseCase{tx: tx, balances: b, log: l}
}

// Balance returns the user's current balance.
func (u *BalanceUseCase) Balance(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	return u.balances.Get(ctx, userID)
}

// Open creates an empty account if the user has none.
func (u *BalanceUseCase) Open(ctx context.Context, userID uuid.UUID) error {
	return u.balances.Open(ctx, userID)
}

// Transactions returns up to limit entries, newest first. Zero means all.
func (u *BalanceUseCase) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.Transaction, error) {
	if _, err := u.balances.Get(ctx, userID); err != nil {
		return nil, err
	}
	var result []model.Transaction
	for entry, err := range u.log.ListForUser(ctx, userID, repository.ListOptions{Limit: limit}) {
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, nil
}

// Earn credits a campaign payout and records it.
func (u *BalanceUseCase) Earn(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	entry := &model.Transaction{UserID: userID, Amount: amount, Kind: model.TransactionKindEarn, Description: description}
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.balances.Open(ctx, userID); err != nil {
			return err
		}
		if err := u.balances.Credit(ctx, userID, amount); err != nil {
			return err
		}
		return u.log.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Adjust applies a signed admin correction. Negative adjustments never
// overdraw the balance.
func (u *BalanceUseCase) Adjust(ctx context.Context, userID uuid.UUID, amount int64, description string) (*model.Transaction, error) {
	if amount == 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	entry := &model.Transaction{UserID: userID, Amount: amount, Kind: model.TransactionKindAdjustment, Description: description}
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if amount > 0 {
			if err := u.balances.Credit(ctx, userID, amount); err != nil {
				return err
			}
		} else {
			ok, err := u.balances.TryDebit(ctx, userID, -amount)
			if err != nil {
				return err
			}
			if !ok {
				return domainErrors.ErrInsufficientBalance
			}
		}
		return u.log.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Reconcile recomputes the ledger sum and compares it with the stored balance.
func (u *BalanceUseCase) Reconcile(ctx context.Context, userID uuid.UUID) (*model.ReconciliationReport, error) {
	report := &model.ReconciliationReport{UserID: userID}
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		balance, err := u.balances.Get(ctx, userID)
		if err != nil {
			return err
		}
		report.Balance = balance.Points

		report.LedgerSum = 0
		for entry, err := range u.log.ListForUser(ctx, userID, repository.ListOptions{}) {
			if err != nil {
				return err
			}
			report.LedgerSum += entry.Amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Users pages through account holders in id order.
func (u *BalanceUseCase) Users(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return u.balances.ListUsers(ctx, after, limit)
}

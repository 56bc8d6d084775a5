package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

// BalanceStore keeps one running balance per user.
type BalanceStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Balance, error)
	Open(ctx context.Context, userID uuid.UUID) error
	// TryDebit subtracts amount atomically only when the balance covers it.
	TryDebit(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64) error
	ListUsers(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

// WithdrawalRepository persists withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, req *model.WithdrawalRequest) error
	Get(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error)
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status model.WithdrawalStatus, limit int) ([]model.WithdrawalRequest, error)
	// UpdateStatus applies req's status and processing fields only while the
	// stored status equals expected. It reports false when nothing matched.
	UpdateStatus(ctx context.Context, req *model.WithdrawalRequest, expected model.WithdrawalStatus) (bool, error)
}

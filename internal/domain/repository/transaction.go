package repository

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

// ListOptions narrows a transaction listing. Zero Limit means no limit.
type ListOptions struct {
	Limit int
}

// TransactionLog is the append-only history of balance changes.
type TransactionLog interface {
	Append(ctx context.Context, tx *model.Transaction) error
	// ListForUser yields newest first. Each range re-reads the log.
	ListForUser(ctx context.Context, userID uuid.UUID, opts ListOptions) iter.Seq2[model.Transaction, error]
	// HasEntry reports whether an entry of kind references the withdrawal.
	HasEntry(ctx context.Context, withdrawalID uuid.UUID, kind model.TransactionKind) (bool, error)
	// ListOrphanedWithdrawals returns withdraw entries older than the cutoff
	// with neither a request row nor a refund.
	ListOrphanedWithdrawals(ctx context.Context, olderThan time.Time, limit int) ([]model.Transaction, error)
}

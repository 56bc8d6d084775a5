package postgres

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/domain/repository"
)

const transactionColumns = `id, user_id, amount, kind, description, related_withdrawal_id, created_at`

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Kind, &t.Description, &t.RelatedWithdrawalID, &t.CreatedAt)
	return t, err
}

func (l *transactionLog) Append(ctx context.Context, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO transactions (` + transactionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := l.storage.conn(ctx).Exec(ctx, query,
		t.ID, t.UserID, t.Amount, t.Kind, t.Description, t.RelatedWithdrawalID, t.CreatedAt)
	return convertErr("append transaction", err)
}

func (l *transactionLog) ListForUser(ctx context.Context, userID uuid.UUID, opts repository.ListOptions) iter.Seq2[model.Transaction, error] {
	const query = `SELECT ` + transactionColumns + ` FROM transactions
                   WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`
	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}

	return func(yield func(model.Transaction, error) bool) {
		rows, err := l.storage.conn(ctx).Query(ctx, query, userID, limit)
		if err != nil {
			yield(model.Transaction{}, convertErr("list transactions", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				yield(model.Transaction{}, convertErr("list transactions", err))
				return
			}
			if !yield(t, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Transaction{}, convertErr("list transactions", err))
		}
	}
}

func (l *transactionLog) HasEntry(ctx context.Context, withdrawalID uuid.UUID, kind model.TransactionKind) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM transactions WHERE related_withdrawal_id=$1 AND kind=$2)`
	var exists bool
	if err := l.storage.conn(ctx).QueryRow(ctx, query, withdrawalID, kind).Scan(&exists); err != nil {
		return false, convertErr("check ledger entry", err)
	}
	return exists, nil
}

func (l *transactionLog) ListOrphanedWithdrawals(ctx context.Context, olderThan time.Time, limit int) ([]model.Transaction, error) {
	const query = `SELECT t.id, t.user_id, t.amount, t.kind, t.description, t.related_withdrawal_id, t.created_at
                   FROM transactions t
                   WHERE t.kind='withdraw' AND t.created_at < $1
                     AND NOT EXISTS (SELECT 1 FROM withdrawal_requests w WHERE w.id = t.related_withdrawal_id)
                     AND NOT EXISTS (SELECT 1 FROM transactions r
                                     WHERE r.kind='refund' AND r.related_withdrawal_id = t.related_withdrawal_id)
                   ORDER BY t.created_at
                   LIMIT $2`
	rows, err := l.storage.conn(ctx).Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, convertErr("list orphaned withdrawals", err)
	}
	defer rows.Close()

	var result []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, convertErr("list orphaned withdrawals", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, convertErr("list orphaned withdrawals", err)
	}
	return result, nil
}

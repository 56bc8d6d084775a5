package postgres

import (
	"context"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
)

func (r *balanceStore) Get(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	const query = `SELECT user_id, points, updated_at FROM balances WHERE user_id=$1`
	var b model.Balance
	err := r.storage.conn(ctx).QueryRow(ctx, query, userID).Scan(&b.UserID, &b.Points, &b.UpdatedAt)
	if err != nil {
		return nil, convertErr("get balance", err)
	}
	return &b, nil
}

func (r *balanceStore) Open(ctx context.Context, userID uuid.UUID) error {
	const query = `INSERT INTO balances (user_id, points) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`
	_, err := r.storage.conn(ctx).Exec(ctx, query, userID)
	return convertErr("open balance", err)
}

// TryDebit relies on a single guarded UPDATE so concurrent debits never
// overdraw.
func (r *balanceStore) TryDebit(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	const query = `UPDATE balances SET points = points - $2, updated_at = NOW()
                   WHERE user_id = $1 AND points >= $2`
	conn := r.storage.conn(ctx)
	tag, err := conn.Exec(ctx, query, userID, amount)
	if err != nil {
		return false, convertErr("debit balance", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM balances WHERE user_id=$1)`, userID).Scan(&exists); err != nil {
		return false, convertErr("debit balance", err)
	}
	if !exists {
		return false, domainErrors.ErrNotFound
	}
	return false, nil
}

func (r *balanceStore) Credit(ctx context.Context, userID uuid.UUID, amount int64) error {
	const query = `UPDATE balances SET points = points + $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.storage.conn(ctx).Exec(ctx, query, userID, amount)
	if err != nil {
		return convertErr("credit balance", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *balanceStore) ListUsers(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	const query = `SELECT user_id FROM balances WHERE user_id > $1 ORDER BY user_id LIMIT $2`
	rows, err := r.storage.conn(ctx).Query(ctx, query, after, limit)
	if err != nil {
		return nil, convertErr("list users", err)
	}
	defer rows.Close()

	var result []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, convertErr("list users", err)
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, convertErr("list users", err)
	}
	return result, nil
}

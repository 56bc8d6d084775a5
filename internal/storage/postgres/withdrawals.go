package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

const withdrawalColumns = `id, user_id, amount, bank_name, account_number, account_holder, status,
                           idempotency_key, created_at, processed_at, processed_by, notes`

func scanWithdrawal(row pgx.Row) (*model.WithdrawalRequest, error) {
	var w model.WithdrawalRequest
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.Bank.BankName, &w.Bank.AccountNumber, &w.Bank.AccountHolder,
		&w.Status, &w.IdempotencyKey, &w.CreatedAt, &w.ProcessedAt, &w.ProcessedBy, &w.Notes)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *withdrawalRepository) Create(ctx context.Context, req *model.WithdrawalRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO withdrawal_requests (` + withdrawalColumns + `)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.storage.conn(ctx).Exec(ctx, query,
		req.ID, req.UserID, req.Amount, req.Bank.BankName, req.Bank.AccountNumber, req.Bank.AccountHolder,
		req.Status, req.IdempotencyKey, req.CreatedAt, req.ProcessedAt, req.ProcessedBy, req.Notes)
	return convertErr("create withdrawal", err)
}

func (r *withdrawalRepository) Get(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id=$1`
	w, err := scanWithdrawal(r.storage.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, convertErr("get withdrawal", err)
	}
	return w, nil
}

func (r *withdrawalRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id=$1 FOR UPDATE`
	w, err := scanWithdrawal(r.storage.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, convertErr("lock withdrawal", err)
	}
	return w, nil
}

func (r *withdrawalRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.WithdrawalRequest, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE user_id=$1 AND idempotency_key=$2`
	w, err := scanWithdrawal(r.storage.conn(ctx).QueryRow(ctx, query, userID, key))
	if err != nil {
		return nil, convertErr("find withdrawal by key", err)
	}
	return w, nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WithdrawalRequest, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
                   WHERE user_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, "list user withdrawals", query, userID)
}

func (r *withdrawalRepository) ListByStatus(ctx context.Context, status model.WithdrawalStatus, limit int) ([]model.WithdrawalRequest, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
                   WHERE status=$1 ORDER BY created_at LIMIT $2`
	return r.list(ctx, "list withdrawals by status", query, status, limit)
}

func (r *withdrawalRepository) list(ctx context.Context, op, query string, args ...any) ([]model.WithdrawalRequest, error) {
	rows, err := r.storage.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, convertErr(op, err)
	}
	defer rows.Close()

	var result []model.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, convertErr(op, err)
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, convertErr(op, err)
	}
	return result, nil
}

func (r *withdrawalRepository) UpdateStatus(ctx context.Context, req *model.WithdrawalRequest, expected model.WithdrawalStatus) (bool, error) {
	const query = `UPDATE withdrawal_requests
                   SET status=$2, processed_at=$3, processed_by=$4, notes=$5
                   WHERE id=$1 AND status=$6`
	tag, err := r.storage.conn(ctx).Exec(ctx, query,
		req.ID, req.Status, req.ProcessedAt, req.ProcessedBy, req.Notes, expected)
	if err != nil {
		return false, convertErr("update withdrawal status", err)
	}
	return tag.RowsAffected() == 1, nil
}

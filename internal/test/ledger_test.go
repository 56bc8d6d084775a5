package test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

func TestWithinTransactionRollbackKeepsOutsideWrites(t *testing.T) {
	ledger := NewMemoryLedger()
	user, other := uuid.New(), uuid.New()
	ledger.Seed(user, 100)
	ledger.Seed(other, 10)
	withdrawalID := uuid.New()
	ledger.PutRequest(model.WithdrawalRequest{ID: withdrawalID, UserID: user, Amount: 5, Status: model.WithdrawalStatusPending})

	failed := errors.New("boom")
	err := ledger.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if ok, err := ledger.Balances().TryDebit(ctx, user, 30); err != nil || !ok {
			t.Fatalf("debit: %v, %v", ok, err)
		}
		if err := ledger.Transactions().Append(ctx, &model.Transaction{UserID: user, Amount: -30, Kind: model.TransactionKindWithdraw, RelatedWithdrawalID: &withdrawalID}); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := ledger.Withdrawals().Create(ctx, &model.WithdrawalRequest{UserID: user, Amount: 30, Status: model.WithdrawalStatusPending}); err != nil {
			t.Fatalf("create: %v", err)
		}
		req := model.WithdrawalRequest{ID: withdrawalID, Status: model.WithdrawalStatusApproved}
		if ok, err := ledger.Withdrawals().UpdateStatus(ctx, &req, model.WithdrawalStatusPending); err != nil || !ok {
			t.Fatalf("update status: %v, %v", ok, err)
		}

		// Writes outside the transaction while it is still open.
		outside := context.Background()
		if err := ledger.Balances().Credit(outside, user, 7); err != nil {
			t.Fatalf("outside credit: %v", err)
		}
		if err := ledger.Transactions().Append(outside, &model.Transaction{UserID: other, Amount: 3, Kind: model.TransactionKindEarn}); err != nil {
			t.Fatalf("outside append: %v", err)
		}
		if err := ledger.Balances().Credit(outside, other, 3); err != nil {
			t.Fatalf("outside credit: %v", err)
		}
		return failed
	})
	if !errors.Is(err, failed) {
		t.Fatalf("expected transaction error, got %v", err)
	}

	if got := ledger.Points(user); got != 107 {
		t.Fatalf("expected debit undone and outside credit kept, got %d", got)
	}
	if got := ledger.Points(other); got != 13 {
		t.Fatalf("expected outside credit kept, got %d", got)
	}
	if got := ledger.LedgerSum(other); got != 13 {
		t.Fatalf("expected outside entry kept, got %d", got)
	}
	if len(ledger.EntriesFor(withdrawalID, model.TransactionKindWithdraw)) != 0 {
		t.Fatal("expected transaction entry removed")
	}
	if ledger.RequestCount() != 1 {
		t.Fatalf("expected created request removed, got %d requests", ledger.RequestCount())
	}
	req, err := ledger.Withdrawals().Get(context.Background(), withdrawalID)
	if err != nil || req.Status != model.WithdrawalStatusPending {
		t.Fatalf("expected status restored, got %+v, %v", req, err)
	}
}

func TestWithinTransactionCommitKeepsWrites(t *testing.T) {
	ledger := NewMemoryLedger()
	user := uuid.New()
	ledger.Seed(user, 50)

	err := ledger.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return ledger.WithinTransaction(ctx, func(ctx context.Context) error {
			return ledger.Balances().Credit(ctx, user, 25)
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ledger.Points(user); got != 75 {
		t.Fatalf("expected 75 points, got %d", got)
	}
}

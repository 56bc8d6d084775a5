package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/pkg/auth"
	testhelpers "github.com/polkiloo/pointledger/internal/test"
	"github.com/polkiloo/pointledger/internal/usecase"
)

type healthStub struct {
	err error
}

func (h healthStub) HealthCheck(context.Context) error { return h.err }

type facadeFixture struct {
	facade   *LedgerFacade
	ledger   *testhelpers.MemoryLedger
	events   *testhelpers.EventRecorder
	strategy *auth.JWTStrategy
}

func newFacade(t *testing.T, health HealthChecker) facadeFixture {
	t.Helper()
	ledger := testhelpers.NewMemoryLedger()
	events := &testhelpers.EventRecorder{}
	policy := usecase.Policy{PersistenceRetries: 1, RetryInterval: time.Millisecond, CompensationTimeout: time.Second}
	logger := zap.NewNop()

	compensator := usecase.NewCompensator(usecase.CompensatorParams{
		Tx:          ledger,
		Balances:    ledger.Balances(),
		Log:         ledger.Transactions(),
		Withdrawals: ledger.Withdrawals(),
		Scheduler:   &testhelpers.SchedulerStub{},
		Events:      events,
		Logger:      logger,
		Policy:      policy,
	})
	withdrawals := usecase.NewWithdrawalUseCase(usecase.WithdrawalParams{
		Balances:    ledger.Balances(),
		Log:         ledger.Transactions(),
		Withdrawals: ledger.Withdrawals(),
		Compensator: compensator,
		Events:      events,
		Logger:      logger,
		Policy:      policy,
	})
	balances := usecase.NewBalanceUseCase(ledger, ledger.Balances(), ledger.Transactions())
	strategy := auth.NewJWTStrategy("secret", auth.Options{})

	return facadeFixture{
		facade:   NewLedgerFacade(strategy, balances, withdrawals, compensator, health),
		ledger:   ledger,
		events:   events,
		strategy: strategy,
	}
}

func TestLedgerFacadeParseToken(t *testing.T) {
	f := newFacade(t, nil)
	principal := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}
	token, err := f.strategy.IssueToken(principal)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	parsed, err := f.facade.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if parsed.UserID != principal.UserID || !parsed.IsAdmin() {
		t.Fatalf("unexpected principal %+v", parsed)
	}
	if _, err := f.facade.ParseToken("garbage"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestLedgerFacadeBalanceOfUnknownUser(t *testing.T) {
	f := newFacade(t, nil)
	user := uuid.New()

	balance, err := f.facade.Balance(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.UserID != user || balance.Points != 0 {
		t.Fatalf("expected empty balance, got %+v", balance)
	}

	entries, err := f.facade.Transactions(context.Background(), user, 10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected no entries, got %v, %v", entries, err)
	}
}

func TestLedgerFacadeWithdrawalFlow(t *testing.T) {
	f := newFacade(t, nil)
	ctx := context.Background()
	user := uuid.New()

	if err := f.facade.OpenAccount(ctx, user); err != nil {
		t.Fatalf("open account: %v", err)
	}
	if _, err := f.facade.Earn(ctx, user, 10000, "campaign payout"); err != nil {
		t.Fatalf("earn: %v", err)
	}

	req, err := f.facade.SubmitWithdrawal(ctx, user, 3000, testhelpers.FakeBankDetails(), "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	balance, _ := f.facade.Balance(ctx, user)
	if balance.Points != 7000 {
		t.Fatalf("expected 7000 points, got %d", balance.Points)
	}

	queue, err := f.facade.WithdrawalQueue(ctx, model.WithdrawalStatusPending, 10)
	if err != nil || len(queue) != 1 || queue[0].ID != req.ID {
		t.Fatalf("expected request in pending queue, got %v, %v", queue, err)
	}

	if _, err := f.facade.ApproveWithdrawal(ctx, req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	done, err := f.facade.CompleteWithdrawal(ctx, req.ID, "admin")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.WithdrawalStatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if _, err := f.facade.RejectWithdrawal(ctx, req.ID, "admin", "late"); err != nil {
		t.Fatalf("reject on terminal request should be a no-op, got %v", err)
	}

	mine, err := f.facade.UserWithdrawals(ctx, user)
	if err != nil || len(mine) != 1 {
		t.Fatalf("expected one request, got %v, %v", mine, err)
	}

	entries, err := f.facade.Transactions(ctx, user, 0)
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected earn and withdraw entries, got %v, %v", entries, err)
	}

	report, err := f.facade.Reconcile(ctx, user)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Drift() != 0 || report.Balance != 7000 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestLedgerFacadeRefund(t *testing.T) {
	f := newFacade(t, nil)
	ctx := context.Background()
	user := uuid.New()
	f.ledger.Seed(user, 500)

	req, err := f.facade.SubmitWithdrawal(ctx, user, 500, testhelpers.FakeBankDetails(), uuid.NewString())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	refunded, err := f.facade.RefundWithdrawal(ctx, req.ID, "admin", "bank bounced")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != model.WithdrawalStatusRejected {
		t.Fatalf("expected rejected, got %s", refunded.Status)
	}
	if f.ledger.Points(user) != 500 {
		t.Fatalf("expected points restored, got %d", f.ledger.Points(user))
	}
	if _, err := f.facade.RefundWithdrawal(ctx, req.ID, "admin", "again"); err != nil {
		t.Fatalf("second refund should be a no-op, got %v", err)
	}
	if len(f.ledger.EntriesFor(req.ID, model.TransactionKindRefund)) != 1 {
		t.Fatal("expected exactly one refund entry")
	}
}

func TestLedgerFacadeAdjust(t *testing.T) {
	f := newFacade(t, nil)
	ctx := context.Background()
	user := uuid.New()
	f.ledger.Seed(user, 50)

	if _, err := f.facade.Adjust(ctx, user, -80, "correction"); !errors.Is(err, domainErrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if _, err := f.facade.Adjust(ctx, user, -20, "correction"); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if f.ledger.Points(user) != 30 {
		t.Fatalf("expected 30 points, got %d", f.ledger.Points(user))
	}
}

func TestLedgerFacadeReconcilerOperations(t *testing.T) {
	f := newFacade(t, nil)
	ctx := context.Background()
	user := uuid.New()
	f.ledger.Seed(user, 40)
	_, _ = f.ledger.Balances().TryDebit(ctx, user, 40)
	id := uuid.New()
	f.ledger.AppendRaw(model.Transaction{
		ID:                  uuid.New(),
		UserID:              user,
		Amount:              -40,
		Kind:                model.TransactionKindWithdraw,
		RelatedWithdrawalID: &id,
		CreatedAt:           time.Now().UTC().Add(-time.Hour),
	})

	users, err := f.facade.Users(ctx, uuid.Nil, 10)
	if err != nil || len(users) != 1 || users[0] != user {
		t.Fatalf("expected one user, got %v, %v", users, err)
	}

	orphans, err := f.facade.OrphanedWithdrawals(ctx, time.Now().Add(-time.Minute), 10)
	if err != nil || len(orphans) != 1 {
		t.Fatalf("expected one orphan, got %v, %v", orphans, err)
	}
	if _, err := f.facade.Compensate(ctx, usecase.OrphanJob(orphans[0])); err != nil {
		t.Fatalf("compensate: %v", err)
	}
	if f.ledger.Points(user) != 40 {
		t.Fatalf("expected reservation returned, got %d", f.ledger.Points(user))
	}
}

func TestLedgerFacadeHealthCheck(t *testing.T) {
	if err := newFacade(t, nil).facade.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected healthy without checker, got %v", err)
	}
	down := errors.New("db down")
	if err := newFacade(t, healthStub{err: down}).facade.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Fatalf("expected checker error, got %v", err)
	}
}

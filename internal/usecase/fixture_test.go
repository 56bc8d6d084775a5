package usecase_test

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	testhelpers "github.com/polkiloo/pointledger/internal/test"
	"github.com/polkiloo/pointledger/internal/usecase"
)

type fixture struct {
	ledger      *testhelpers.MemoryLedger
	events      *testhelpers.EventRecorder
	scheduler   *testhelpers.SchedulerStub
	compensator *usecase.Compensator
	withdrawals *usecase.WithdrawalUseCase
	balances    *usecase.BalanceUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithPolicy(t, usecase.Policy{
		PersistenceRetries:  2,
		RetryInterval:       time.Millisecond,
		CompensationTimeout: time.Second,
	})
}

func newFixtureWithPolicy(t *testing.T, policy usecase.Policy) *fixture {
	t.Helper()
	ledger := testhelpers.NewMemoryLedger()
	events := &testhelpers.EventRecorder{}
	scheduler := &testhelpers.SchedulerStub{}
	logger := zaptest.NewLogger(t)

	compensator := usecase.NewCompensator(usecase.CompensatorParams{
		Tx:          ledger,
		Balances:    ledger.Balances(),
		Log:         ledger.Transactions(),
		Withdrawals: ledger.Withdrawals(),
		Scheduler:   scheduler,
		Events:      events,
		Logger:      logger,
		Policy:      policy,
	})
	return &fixture{
		ledger:      ledger,
		events:      events,
		scheduler:   scheduler,
		compensator: compensator,
		withdrawals: usecase.NewWithdrawalUseCase(usecase.WithdrawalParams{
			Balances:    ledger.Balances(),
			Log:         ledger.Transactions(),
			Withdrawals: ledger.Withdrawals(),
			Compensator: compensator,
			Events:      events,
			Logger:      logger,
			Policy:      policy,
		}),
		balances: usecase.NewBalanceUseCase(ledger, ledger.Balances(), ledger.Transactions()),
	}
}

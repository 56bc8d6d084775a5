package di

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/app"
	"github.com/polkiloo/pointledger/internal/config"
	"github.com/polkiloo/pointledger/internal/domain/repository"
	"github.com/polkiloo/pointledger/internal/server/http/handlers"
	"github.com/polkiloo/pointledger/internal/storage/postgres"
	"github.com/polkiloo/pointledger/internal/test"
	"github.com/polkiloo/pointledger/internal/usecase"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:          ":0",
		DatabaseURI:         "postgres://stub",
		JWTSecret:           "secret",
		EventsChannel:       "ledger.withdrawals",
		EventBuffer:         4,
		ReconcileInterval:   time.Millisecond,
		ReconcileBatch:      1,
		WorkerPoolSize:      1,
		OrphanGrace:         time.Minute,
		PersistenceRetries:  1,
		RetryInterval:       time.Millisecond,
		CompensationTimeout: time.Millisecond,
		SubmitRate:          1,
		SubmitBurst:         1,
		ShutdownTimeout:     time.Millisecond,
	}
	ledger := test.NewMemoryLedger()

	var (
		facade   *app.LedgerFacade
		api      handlers.LedgerFacade
		engine   *gin.Engine
		emitter  usecase.EventEmitter
		schedule usecase.CompensationScheduler
	)
	fxApp := fx.New(
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(zap.NewNop()),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.BalanceStore(ledger.Balances())),
			fx.Replace(repository.TransactionLog(ledger.Transactions())),
			fx.Replace(repository.WithdrawalRepository(ledger.Withdrawals())),
			fx.Replace(repository.Transactor(ledger)),
			fx.NopLogger,
		),
		fx.Populate(&facade, &api, &engine, &emitter, &schedule),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil || engine == nil {
		t.Fatal("expected ledger facade and router instances")
	}
	if api != handlers.LedgerFacade(facade) {
		t.Fatal("expected handlers to use the ledger facade")
	}
	if emitter == nil || schedule == nil {
		t.Fatal("expected event emitter and compensation scheduler")
	}
}

package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/polkiloo/pointledger/internal/config"
	testhelpers "github.com/polkiloo/pointledger/internal/test"
	"github.com/polkiloo/pointledger/internal/usecase"
	"github.com/polkiloo/pointledger/internal/worker"
)

func newTestReconciler() *worker.Reconciler {
	return worker.NewReconciler(&testhelpers.ReconcilerFacadeStub{}, 10*time.Millisecond, 1, 1, time.Minute, zap.NewNop())
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewReconcilerUsesConfig(t *testing.T) {
	rec := newReconciler(workerParams{
		Facade: &LedgerFacade{},
		Config: &config.Config{ReconcileInterval: 15 * time.Second, ReconcileBatch: 3, WorkerPoolSize: 4, OrphanGrace: time.Minute},
		Logger: zap.NewNop(),
	})
	if rec == nil {
		t.Fatal("expected reconciler instance")
	}
}

func TestNewCompensationQueueUsesConfig(t *testing.T) {
	queue := newCompensationQueue(queueParams{
		Config: &config.Config{EventBuffer: 1, RetryInterval: time.Millisecond},
		Logger: zap.NewNop(),
	})
	if err := queue.Schedule(usecase.CompensationJob{WithdrawalID: uuid.New()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := queue.Schedule(usecase.CompensationJob{WithdrawalID: uuid.New()}); err != worker.ErrQueueFull {
		t.Fatalf("expected full queue, got %v", err)
	}
}

func lifecycleFixture(t *testing.T, server *http.Server, logger *zap.Logger) (*testhelpers.LifecycleRecorder, *testhelpers.ShutdownerStub, *worker.CompensationQueue, *testhelpers.MemoryLedger) {
	t.Helper()
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	ledger := testhelpers.NewMemoryLedger()
	queue := worker.NewCompensationQueue(4, time.Millisecond, logger)
	compensator := usecase.NewCompensator(usecase.CompensatorParams{
		Tx:          ledger,
		Balances:    ledger.Balances(),
		Log:         ledger.Transactions(),
		Withdrawals: ledger.Withdrawals(),
		Scheduler:   queue,
		Events:      &testhelpers.EventRecorder{},
		Logger:      logger,
		Policy:      usecase.Policy{RetryInterval: time.Millisecond, CompensationTimeout: time.Second},
	})

	registerLifecycle(lifecycleParams{
		Lifecycle:   recorder,
		Shutdowner:  shutdowner,
		Logger:      logger,
		Server:      server,
		Reconciler:  newTestReconciler(),
		Queue:       queue,
		Compensator: compensator,
		Config:      &config.Config{ShutdownTimeout: 100 * time.Millisecond},
	})
	return recorder, shutdowner, queue, ledger
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	recorder, _, _, _ := lifecycleFixture(t, server, zap.NewNop())

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	hook := recorder.Hooks[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hook.OnStart(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hook.OnStop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}
}

func TestRegisterLifecycleRunsScheduledCompensation(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	recorder, _, queue, ledger := lifecycleFixture(t, server, zap.NewNop())
	hook := recorder.Hooks[0]

	// Canceling the start context must not stop the workers.
	ctx, cancel := context.WithCancel(context.Background())
	if err := hook.OnStart(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}
	cancel()
	defer func() { _ = hook.OnStop(context.Background()) }()

	user := uuid.New()
	ledger.Seed(user, 0)
	if err := queue.Schedule(usecase.CompensationJob{WithdrawalID: uuid.New(), UserID: user, Amount: 15, Reason: "retry"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for ledger.Points(user) != 15 {
		if time.Now().After(deadline) {
			t.Fatalf("expected scheduled refund, balance %d", ledger.Points(user))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegisterLifecycleReportsUnfinishedCompensation(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	recorder, _, queue, _ := lifecycleFixture(t, server, zap.New(core))

	if err := queue.Schedule(usecase.CompensationJob{WithdrawalID: uuid.New(), UserID: uuid.New(), Amount: 5}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := recorder.Hooks[0].OnStop(context.Background()); err != nil {
		t.Fatalf("on stop failed: %v", err)
	}
	if logs.FilterMessage("compensation unfinished at shutdown, manual reconciliation required").Len() != 1 {
		t.Fatalf("expected unfinished job to be logged, got %v", logs.All())
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	server := &http.Server{Addr: "bad addr"}
	recorder, shutdowner, _, _ := lifecycleFixture(t, server, zap.NewNop())

	hook := recorder.Hooks[0]
	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = hook.OnStop(context.Background())
}

func TestLifecycleRecorderAppend(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	recorder.Append(fx.Hook{})
	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected hook to be appended")
	}
}

func TestShutdownerStub(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-shutdowner.Called:
	default:
		t.Fatal("expected shutdown notification")
	}
}

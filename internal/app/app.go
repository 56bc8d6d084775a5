package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/config"
	"github.com/polkiloo/pointledger/internal/server/http/handlers"
	"github.com/polkiloo/pointledger/internal/usecase"
	"github.com/polkiloo/pointledger/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewLedgerFacade,
		func(f *LedgerFacade) handlers.LedgerFacade { return f },
		newHTTPServer,
		newReconciler,
		newCompensationQueue,
		func(q *worker.CompensationQueue) usecase.CompensationScheduler { return q },
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *LedgerFacade
	Config *config.Config
	Logger *zap.Logger
}

func newReconciler(p workerParams) *worker.Reconciler {
	return worker.NewReconciler(
		p.Facade,
		p.Config.ReconcileInterval,
		p.Config.ReconcileBatch,
		p.Config.WorkerPoolSize,
		p.Config.OrphanGrace,
		p.Logger,
	)
}

type queueParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func newCompensationQueue(p queueParams) *worker.CompensationQueue {
	return worker.NewCompensationQueue(p.Config.EventBuffer, p.Config.RetryInterval, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Shutdowner  fx.Shutdowner
	Logger      *zap.Logger
	Server      *http.Server
	Reconciler  *worker.Reconciler
	Queue       *worker.CompensationQueue
	Compensator *usecase.Compensator
	Config      *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting pointledger", zap.String("addr", p.Server.Addr))
			// Workers outlive the start context; OnStop cancels them.
			runCtx := context.WithoutCancel(ctx)
			p.Queue.Start(runCtx, p.Compensator.Handle)
			p.Reconciler.Start(runCtx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", zap.Error(err))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			p.Reconciler.Stop()
			p.Queue.Stop()

			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("pointledger stopped")
			return nil
		},
	})
}

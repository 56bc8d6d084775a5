package di

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/adapter/notify"
	"github.com/polkiloo/pointledger/internal/app"
	"github.com/polkiloo/pointledger/internal/config"
	"github.com/polkiloo/pointledger/internal/logger"
	"github.com/polkiloo/pointledger/internal/pkg/auth"
	"github.com/polkiloo/pointledger/internal/server/http/router"
	"github.com/polkiloo/pointledger/internal/storage/postgres"
	"github.com/polkiloo/pointledger/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		notify.Module,
		usecase.Module,
		fx.Provide(func(s *postgres.Storage) app.HealthChecker { return s }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

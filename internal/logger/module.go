package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires zap logger for dependency injection.
var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}

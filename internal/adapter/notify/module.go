package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/config"
	"github.com/polkiloo/pointledger/internal/usecase"
)

// Module exposes the event dispatcher to the fx graph.
var Module = fx.Options(
	fx.Provide(
		newPublisher,
		newDispatcher,
		func(d *Dispatcher) usecase.EventEmitter { return d },
	),
	fx.Invoke(registerLifecycle),
)

type publisherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
}

func newPublisher(p publisherParams) Publisher {
	if p.Config.RedisAddress == "" {
		p.Logger.Info("no redis address configured, events are logged only")
		return NewLogPublisher(p.Logger)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     p.Config.RedisAddress,
		Password: p.Config.RedisPassword,
		DB:       p.Config.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error { return client.Close() },
	})
	return NewRedisPublisher(client, p.Config.EventsChannel)
}

type dispatcherParams struct {
	fx.In

	Publisher Publisher
	Config    *config.Config
	Logger    *zap.Logger
}

func newDispatcher(p dispatcherParams) *Dispatcher {
	return NewDispatcher(p.Publisher, p.Config.EventBuffer, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, d *Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.Start(context.Background())
			return nil
		},
		OnStop: func(context.Context) error {
			d.Stop()
			return nil
		},
	})
}

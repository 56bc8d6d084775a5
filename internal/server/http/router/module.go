package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/pointledger/internal/config"
	"github.com/polkiloo/pointledger/internal/server/http/middleware"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(Setup, newRateLimiter)

func newRateLimiter(cfg *config.Config) *middleware.UserRateLimiter {
	return middleware.NewUserRateLimiter(cfg.SubmitRate, cfg.SubmitBurst)
}

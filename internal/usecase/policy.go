package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/polkiloo/pointledger/internal/config"
	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
)

// Policy bounds retries of storage writes and synchronous compensation.
type Policy struct {
	PersistenceRetries  int
	RetryInterval       time.Duration
	CompensationTimeout time.Duration
}

// NewPolicy reads retry settings from configuration.
func NewPolicy(cfg *config.Config) Policy {
	return Policy{
		PersistenceRetries:  cfg.PersistenceRetries,
		RetryInterval:       cfg.RetryInterval,
		CompensationTimeout: cfg.CompensationTimeout,
	}
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	interval := p.RetryInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(interval),
		backoff.WithMaxInterval(20*interval),
	)
}

// retryPersistence retries op on PersistenceError at most PersistenceRetries times.
func (p Policy) retryPersistence(ctx context.Context, op func() error) error {
	retries := p.PersistenceRetries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), uint64(retries)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !errors.Is(err, domainErrors.ErrPersistence) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

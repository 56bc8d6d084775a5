package usecase

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewPolicy,
	NewBalanceUseCase,
	newCompensator,
	newWithdrawalUseCase,
)

type compensatorParams struct {
	fx.In

	Tx          repository.Transactor
	Balances    repository.BalanceStore
	Log         repository.TransactionLog
	Withdrawals repository.WithdrawalRepository
	Scheduler   CompensationScheduler
	Events      EventEmitter
	Logger      *zap.Logger
	Policy      Policy
}

func newCompensator(p compensatorParams) *Compensator {
	return NewCompensator(CompensatorParams{
		Tx:          p.Tx,
		Balances:    p.Balances,
		Log:         p.Log,
		Withdrawals: p.Withdrawals,
		Scheduler:   p.Scheduler,
		Events:      p.Events,
		Logger:      p.Logger,
		Policy:      p.Policy,
	})
}

type withdrawalParams struct {
	fx.In

	Balances    repository.BalanceStore
	Log         repository.TransactionLog
	Withdrawals repository.WithdrawalRepository
	Compensator *Compensator
	Events      EventEmitter
	Logger      *zap.Logger
	Policy      Policy
}

func newWithdrawalUseCase(p withdrawalParams) *WithdrawalUseCase {
	return NewWithdrawalUseCase(WithdrawalParams{
		Balances:    p.Balances,
		Log:         p.Log,
		Withdrawals: p.Withdrawals,
		Compensator: p.Compensator,
		Events:      p.Events,
		Logger:      p.Logger,
		Policy:      p.Policy,
	})
}

package repository

import "context"

// Factory describes access to different domain repositories.
type Factory interface {
	Balances() BalanceStore
	Transactions() TransactionLog
	Withdrawals() WithdrawalRepository
}

// Transactor runs fn inside one storage transaction carried by ctx.
// Nested calls join the outer transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

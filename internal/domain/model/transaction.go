package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind classifies balance-affecting events.
type TransactionKind string

const (
	TransactionKindEarn       TransactionKind = "earn"
	TransactionKindWithdraw   TransactionKind = "withdraw"
	TransactionKindRefund     TransactionKind = "refund"
	TransactionKindAdjustment TransactionKind = "adjustment"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindEarn, TransactionKindWithdraw, TransactionKindRefund, TransactionKindAdjustment:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Positive amounts credit the user.
type Transaction struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	Amount              int64
	Kind                TransactionKind
	Description         string
	RelatedWithdrawalID *uuid.UUID
	CreatedAt           time.Time
}

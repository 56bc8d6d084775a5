package model

import (
	"time"

	"github.com/google/uuid"
)

// Balance is the materialized running sum of a user's transactions.
type Balance struct {
	UserID    uuid.UUID
	Points    int64
	UpdatedAt time.Time
}

// ReconciliationReport compares the stored balance with the ledger sum.
type ReconciliationReport struct {
	UserID    uuid.UUID
	Balance   int64
	LedgerSum int64
}

// Drift is zero for a consistent ledger.
func (r ReconciliationReport) Drift() int64 {
	return r.Balance - r.LedgerSum
}

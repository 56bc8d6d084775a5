package dto

import (
	"time"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

// BalanceResponse represents the user's point balance.
type BalanceResponse struct {
	Points    int64     `json:"points"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TransactionResponse describes one ledger entry.
type TransactionResponse struct {
	ID                  string    `json:"id"`
	Amount              int64     `json:"amount"`
	Kind                string    `json:"kind"`
	Description         string    `json:"description,omitempty"`
	RelatedWithdrawalID *string   `json:"relatedWithdrawalId,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// NewTransactionResponse converts a ledger entry.
func NewTransactionResponse(t model.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID.String(),
		Amount:      t.Amount,
		Kind:        string(t.Kind),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if t.RelatedWithdrawalID != nil {
		id := t.RelatedWithdrawalID.String()
		resp.RelatedWithdrawalID = &id
	}
	return resp
}

// AmountRequest carries a signed admin credit or correction.
type AmountRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// ReconciliationResponse reports the stored balance against the ledger.
type ReconciliationResponse struct {
	UserID    string `json:"userId"`
	Balance   int64  `json:"balance"`
	LedgerSum int64  `json:"ledgerSum"`
	Drift     int64  `json:"drift"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

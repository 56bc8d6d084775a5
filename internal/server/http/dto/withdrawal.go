package dto

import (
	"time"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

// SubmitWithdrawalRequest describes withdrawal request payload.
type SubmitWithdrawalRequest struct {
	Amount        int64  `json:"amount"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountHolder string `json:"accountHolder"`
}

// SubmitWithdrawalResponse acknowledges a submission.
type SubmitWithdrawalResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// AdminActionRequest carries the operator's identity and notes.
type AdminActionRequest struct {
	ProcessedBy string `json:"processedBy"`
	Notes       string `json:"notes"`
}

// StatusResponse reports a request's status after an admin action.
type StatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// WithdrawalResponse describes a withdrawal request.
type WithdrawalResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Amount        int64      `json:"amount"`
	BankName      string     `json:"bankName"`
	AccountNumber string     `json:"accountNumber"`
	AccountHolder string     `json:"accountHolder"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	ProcessedAt   *time.Time `json:"processedAt,omitempty"`
	ProcessedBy   string     `json:"processedBy,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// NewWithdrawalResponse converts a request.
func NewWithdrawalResponse(w model.WithdrawalRequest) WithdrawalResponse {
	return WithdrawalResponse{
		ID:            w.ID.String(),
		UserID:        w.UserID.String(),
		Amount:        w.Amount,
		BankName:      w.Bank.BankName,
		AccountNumber: w.Bank.AccountNumber,
		AccountHolder: w.Bank.AccountHolder,
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt,
		ProcessedAt:   w.ProcessedAt,
		ProcessedBy:   w.ProcessedBy,
		Notes:         w.Notes,
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus is a state of the withdrawal workflow.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusRejected
}

// CanTransition reports whether s may move to next.
func (s WithdrawalStatus) CanTransition(next WithdrawalStatus) bool {
	switch s {
	case WithdrawalStatusPending:
		return next == WithdrawalStatusApproved || next == WithdrawalStatusRejected
	case WithdrawalStatusApproved:
		return next == WithdrawalStatusCompleted || next == WithdrawalStatusRejected
	}
	return false
}

// Valid reports whether s is a known status.
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusCompleted, WithdrawalStatusRejected:
		return true
	}
	return false
}

// BankDetails identifies the payout destination.
type BankDetails struct {
	BankName      string
	AccountNumber string
	AccountHolder string
}

// WithdrawalRequest tracks a withdrawal from submission to payout or rejection.
type WithdrawalRequest struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Amount         int64
	Bank           BankDetails
	Status         WithdrawalStatus
	IdempotencyKey *string
	CreatedAt      time.Time
	ProcessedAt    *time.Time
	ProcessedBy    string
	Notes          string
}

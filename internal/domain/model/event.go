package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an outbound workflow notification.
type EventType string

const (
	EventWithdrawalSubmitted EventType = "withdrawal.submitted"
	EventWithdrawalApproved  EventType = "withdrawal.approved"
	EventWithdrawalCompleted EventType = "withdrawal.completed"
	EventWithdrawalRejected  EventType = "withdrawal.rejected"
)

// WithdrawalEvent is emitted after a successful workflow transition.
type WithdrawalEvent struct {
	ID           uuid.UUID
	Type         EventType
	WithdrawalID uuid.UUID
	UserID       uuid.UUID
	Amount       int64
	Status       WithdrawalStatus
	OccurredAt   time.Time
}

// NewWithdrawalEvent snapshots req as an event of type t.
func NewWithdrawalEvent(t EventType, req *WithdrawalRequest) WithdrawalEvent {
	return WithdrawalEvent{
		ID:           uuid.New(),
		Type:         t,
		WithdrawalID: req.ID,
		UserID:       req.UserID,
		Amount:       req.Amount,
		Status:       req.Status,
		OccurredAt:   time.Now().UTC(),
	}
}

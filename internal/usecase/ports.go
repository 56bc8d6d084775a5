package usecase

import (
	"github.com/google/uuid"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

// EventEmitter receives workflow events. Emit must not block.
type EventEmitter interface {
	Emit(event model.WithdrawalEvent)
}

// CompensationScheduler takes over compensation jobs that could not be
// settled synchronously.
type CompensationScheduler interface {
	Schedule(job CompensationJob) error
}

// CompensationJob describes a reserved debit that must be returned.
type CompensationJob struct {
	WithdrawalID uuid.UUID
	UserID       uuid.UUID
	Amount       int64
	Reason       string
	ProcessedBy  string
}

package test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/usecase"
)

// ReconcilerFacadeStub provides configurable behaviour for reconciler tests.
type ReconcilerFacadeStub struct {
	sync.Mutex

	UserIDs     []uuid.UUID
	Reports     map[uuid.UUID][]model.ReconciliationReport
	Orphans     []model.Transaction
	UsersErr    error
	ReconcileFn func(ctx context.Context, userID uuid.UUID) (*model.ReconciliationReport, error)

	Reconciled  []uuid.UUID
	Compensated []usecase.CompensationJob
}

// Users pages through UserIDs in slice order.
func (s *ReconcilerFacadeStub) Users(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	s.Lock()
	defer s.Unlock()
	if s.UsersErr != nil {
		return nil, s.UsersErr
	}
	start := 0
	if after != uuid.Nil {
		for i, id := range s.UserIDs {
			if id == after {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(s.UserIDs) {
		end = len(s.UserIDs)
	}
	return append([]uuid.UUID(nil), s.UserIDs[start:end]...), nil
}

// Reconcile pops the next configured report for userID, or reports no drift.
func (s *ReconcilerFacadeStub) Reconcile(ctx context.Context, userID uuid.UUID) (*model.ReconciliationReport, error) {
	s.Lock()
	s.Reconciled = append(s.Reconciled, userID)
	fn := s.ReconcileFn
	var report *model.ReconciliationReport
	if queue := s.Reports[userID]; len(queue) > 0 {
		report = &queue[0]
		if len(queue) > 1 {
			s.Reports[userID] = queue[1:]
		}
	}
	s.Unlock()

	if fn != nil {
		return fn(ctx, userID)
	}
	if report == nil {
		return &model.ReconciliationReport{UserID: userID}, nil
	}
	return report, nil
}

// OrphanedWithdrawals returns Orphans once.
func (s *ReconcilerFacadeStub) OrphanedWithdrawals(context.Context, time.Time, int) ([]model.Transaction, error) {
	s.Lock()
	defer s.Unlock()
	out := s.Orphans
	s.Orphans = nil
	return out, nil
}

// Compensate records job.
func (s *ReconcilerFacadeStub) Compensate(_ context.Context, job usecase.CompensationJob) (*model.WithdrawalRequest, error) {
	s.Lock()
	defer s.Unlock()
	s.Compensated = append(s.Compensated, job)
	return nil, nil
}

// ReconciledCount returns the number of Reconcile calls.
func (s *ReconcilerFacadeStub) ReconciledCount() int {
	s.Lock()
	defer s.Unlock()
	return len(s.Reconciled)
}

package test

import (
	"sync"

	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/usecase"
)

// EventRecorder collects emitted events.
type EventRecorder struct {
	mu     sync.Mutex
	events []model.WithdrawalEvent
}

// Emit records event.
func (r *EventRecorder) Emit(event model.WithdrawalEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of recorded events.
func (r *EventRecorder) Events() []model.WithdrawalEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.WithdrawalEvent(nil), r.events...)
}

// Types returns recorded event types in emission order.
func (r *EventRecorder) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// SchedulerStub records scheduled compensation jobs.
type SchedulerStub struct {
	mu   sync.Mutex
	jobs []usecase.CompensationJob
	Err  error
}

// Schedule records job or returns Err.
func (s *SchedulerStub) Schedule(job usecase.CompensationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Jobs returns scheduled jobs.
func (s *SchedulerStub) Jobs() []usecase.CompensationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]usecase.CompensationJob(nil), s.jobs...)
}

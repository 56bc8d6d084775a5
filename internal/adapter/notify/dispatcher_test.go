package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.WithdrawalEvent
	err    error
	block  chan struct{}
}

func (p *recordingPublisher) Publish(ctx context.Context, event model.WithdrawalEvent) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestDispatcherPublishesInBackground(t *testing.T) {
	publisher := &recordingPublisher{}
	d := NewDispatcher(publisher, 8, zap.NewNop())
	d.Start(context.Background())

	d.Emit(sampleEvent())
	d.Emit(sampleEvent())

	deadline := time.After(time.Second)
	for publisher.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for publish")
		case <-time.After(5 * time.Millisecond):
		}
	}
	d.Stop()
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := NewDispatcher(&recordingPublisher{}, 1, zap.New(core))

	d.Emit(sampleEvent())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Emit(sampleEvent())
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit must not block")
	}
	if logs.FilterMessage("event buffer full, dropping event").Len() != 1 {
		t.Fatal("expected dropped event warning")
	}
}

func TestDispatcherStopFlushesBuffer(t *testing.T) {
	publisher := &recordingPublisher{}
	d := NewDispatcher(publisher, 4, nil)

	d.Emit(sampleEvent())
	d.Emit(sampleEvent())
	d.Stop()

	if publisher.count() != 2 {
		t.Fatalf("expected buffered events to be flushed, got %d", publisher.count())
	}
}

func TestDispatcherLogsPublishErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := NewDispatcher(&recordingPublisher{err: errors.New("broker down")}, 2, zap.New(core))

	d.Emit(sampleEvent())
	d.Stop()

	if logs.FilterMessage("publish event failed").Len() != 1 {
		t.Fatal("expected publish failure to be logged")
	}
}

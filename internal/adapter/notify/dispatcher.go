package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

const (
	publishTimeout = 2 * time.Second
	drainTimeout   = 5 * time.Second
)

// Dispatcher buffers events and publishes them from a background goroutine
// so workflow operations never wait on the notifier.
type Dispatcher struct {
	publisher Publisher
	logger    *zap.Logger
	events    chan model.WithdrawalEvent

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewDispatcher constructs Dispatcher with a buffer of size events.
func NewDispatcher(publisher Publisher, size int, logger *zap.Logger) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		publisher: publisher,
		logger:    logger,
		events:    make(chan model.WithdrawalEvent, size),
	}
}

// Emit enqueues event. A full buffer drops the event with a warning.
func (d *Dispatcher) Emit(event model.WithdrawalEvent) {
	select {
	case d.events <- event:
	default:
		d.logger.Warn("event buffer full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("withdrawal_id", event.WithdrawalID.String()))
	}
}

// Start launches the publishing goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.run(runCtx)
}

// Stop halts the goroutine and flushes buffered events.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-d.events:
			d.publish(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			d.publish(publishCtx, event)
			cancel()
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, event model.WithdrawalEvent) {
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Warn("publish event failed",
			zap.String("type", string(event.Type)),
			zap.String("withdrawal_id", event.WithdrawalID.String()),
			zap.Error(err))
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

// Publisher delivers a single event to the notifier.
type Publisher interface {
	Publish(ctx context.Context, event model.WithdrawalEvent) error
}

// message mirrors the JSON payload consumed by the notifier.
type message struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	WithdrawalID string    `json:"withdrawalId"`
	UserID       string    `json:"userId"`
	Amount       int64     `json:"amount"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Encode renders event as the notifier payload.
func Encode(event model.WithdrawalEvent) ([]byte, error) {
	return json.Marshal(message{
		ID:           event.ID.String(),
		Type:         string(event.Type),
		WithdrawalID: event.WithdrawalID.String(),
		UserID:       event.UserID.String(),
		Amount:       event.Amount,
		Status:       string(event.Status),
		OccurredAt:   event.OccurredAt,
	})
}

// RedisPublisher publishes events to a Redis pub/sub channel.
type RedisPublisher struct {
	client  redis.Cmdable
	channel string
}

// NewRedisPublisher constructs RedisPublisher.
func NewRedisPublisher(client redis.Cmdable, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish sends event to the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, event model.WithdrawalEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher constructs LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs event.
func (p *LogPublisher) Publish(_ context.Context, event model.WithdrawalEvent) error {
	p.logger.Info("withdrawal event",
		zap.String("type", string(event.Type)),
		zap.String("withdrawal_id", event.WithdrawalID.String()),
		zap.String("user_id", event.UserID.String()),
		zap.Int64("amount", event.Amount),
		zap.String("status", string(event.Status)))
	return nil
}

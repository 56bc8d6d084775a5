package notify

import (
	"context"
	"testing"

	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/config"
)

func TestNewPublisherFallsBackToLog(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	publisher := newPublisher(publisherParams{Lifecycle: lc, Config: &config.Config{}, Logger: zap.NewNop()})
	if _, ok := publisher.(*LogPublisher); !ok {
		t.Fatalf("expected log publisher, got %T", publisher)
	}
}

func TestNewPublisherUsesRedis(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := &config.Config{RedisAddress: "127.0.0.1:6379", EventsChannel: "events"}
	publisher := newPublisher(publisherParams{Lifecycle: lc, Config: cfg, Logger: zap.NewNop()})
	redisPublisher, ok := publisher.(*RedisPublisher)
	if !ok {
		t.Fatalf("expected redis publisher, got %T", publisher)
	}
	if redisPublisher.channel != "events" {
		t.Fatalf("unexpected channel %q", redisPublisher.channel)
	}
	lc.RequireStart().RequireStop()
}

func TestDispatcherLifecycle(t *testing.T) {
	publisher := &recordingPublisher{}
	d := newDispatcher(dispatcherParams{Publisher: publisher, Config: &config.Config{EventBuffer: 4}, Logger: zap.NewNop()})

	lc := fxtest.NewLifecycle(t)
	registerLifecycle(lc, d)
	if err := lc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	d.Emit(sampleEvent())
	if err := lc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if publisher.count() != 1 {
		t.Fatalf("expected event to be published, got %d", publisher.count())
	}
}

package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

type EventHandler func(ctx context.Context, event entities.Event)

// LocalEventBus fans published events out to in-process subscribers.
type LocalEventBus struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   *zap.Logger
}

var _ interfaces.EventPublisher = (*LocalEventBus)(nil)

func NewLocalEventBus(logger *zap.Logger) *LocalEventBus {
	return &LocalEventBus{logger: logger.Named("events")}
}

func (b *LocalEventBus) Subscribe(h EventHandler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

func (b *LocalEventBus) Publish(ctx context.Context, event entities.Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, event)
	}
}

// dispatch keeps a failing subscriber from breaking the publishing request.
func (b *LocalEventBus) dispatch(ctx context.Context, h EventHandler, event entities.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("event", string(event.Type)),
				zap.Any("panic", r))
		}
	}()
	h(ctx, event)
}

const redisEventChannel = "amharicai:events"

// RedisEventBus relays events through Redis pub/sub so every API process
// delivers them to its own websocket clients.
type RedisEventBus struct {
	client *redis.Client
	local  *LocalEventBus
	logger *zap.Logger
}

var _ interfaces.EventPublisher = (*RedisEventBus)(nil)

func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisEventBus(client *redis.Client, local *LocalEventBus, logger *zap.Logger) *RedisEventBus {
	return &RedisEventBus{client: client, local: local, logger: logger.Named("events")}
}

// Publish sends the event to Redis. If Redis is unreachable the event is
// delivered locally so connected clients on this process still see it.
func (b *RedisEventBus) Publish(ctx context.Context, event entities.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to encode event", zap.String("event", string(event.Type)), zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, redisEventChannel, payload).Err(); err != nil {
		b.logger.Warn("Redis publish failed, delivering locally",
			zap.String("event", string(event.Type)),
			zap.Error(err))
		b.local.Publish(ctx, event)
	}
}

// Run consumes relayed events until ctx is cancelled.
func (b *RedisEventBus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, redisEventChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", redisEventChannel, err)
	}
	b.logger.Info("Listening for relayed events", zap.String("channel", redisEventChannel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event entities.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("Dropping malformed event", zap.Error(err))
				continue
			}
			b.local.Publish(ctx, event)
		}
	}
}

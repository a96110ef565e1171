package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher публикует события в канал Redis "<prefix>:<tenderId>".
type RedisPublisher struct {
	client redisPublisher
	prefix string
}

// NewRedisPublisher создаёт RedisPublisher.
func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel возвращает канал тендера.
func (p *RedisPublisher) Channel(tenderID string) string {
	return p.prefix + ":" + tenderID
}

// Publish реализует Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(e.TenderID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s for tender %s: %w", e.Type, e.TenderID, err)
	}
	return nil
}

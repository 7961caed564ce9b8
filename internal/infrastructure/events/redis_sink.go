package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const eventChannel = "auction:events"

// RedisSink publishes events on a Redis pub/sub channel for downstream
// consumers (websocket gateways, search indexers, notification fan-out).
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink creates a sink over an existing Redis client
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Deliver(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.client.Publish(ctx, eventChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

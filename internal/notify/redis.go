package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher forwards events to the Redis channel match:<id>:events.
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func Channel(matchID string) string {
	return "match:" + matchID + ":events"
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if err := p.client.Publish(ctx, Channel(ev.MatchID), ev.Marshal()).Err(); err != nil {
		return fmt.Errorf("publishing to redis: %w", err)
	}
	return nil
}

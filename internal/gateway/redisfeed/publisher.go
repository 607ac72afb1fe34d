// Package redisfeed carries the change feed over Redis pub/sub.
//
// Trade-offs, since the gateway contract leaves transport open: pub/sub is
// at-most-once with no replay, which matches the feed model the client core
// assumes — a reconnect forces a full reload precisely because missed events
// are gone. Publish order is preserved per channel; everything flows through
// one channel, so subscribers see events in publish order.
package redisfeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/redis/go-redis/v9"
)

// Channel is the single pub/sub channel all change events travel on.
const Channel = "pawstream:changes"

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, event gateway.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

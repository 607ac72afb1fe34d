// Package notify delivers out-of-band "new message" pings. The sync core
// treats delivery as fire-and-forget; the real push-notification fanout
// (APNs/FCM) belongs to a separate worker that consumes these channels.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier publishes one payload per recipient to a per-user channel
// ("pawstream:notify:<user-id>").
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

func channelFor(userID uuid.UUID) string {
	return "pawstream:notify:" + userID.String()
}

func (n *RedisNotifier) Notify(ctx context.Context, recipients []uuid.UUID, payload gateway.NotifyPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	// Per-recipient publish; one failed recipient doesn't block the rest.
	var failed int
	for _, userID := range recipients {
		if err := n.client.Publish(ctx, channelFor(userID), body).Err(); err != nil {
			failed++
			n.logger.Warn("notify publish failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}
	if failed > 0 {
		return fmt.Errorf("notify: %d of %d publishes failed", failed, len(recipients))
	}
	return nil
}

// NopNotifier drops every notification. Useful for tests and for
// deployments without a notification worker.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, []uuid.UUID, gateway.NotifyPayload) error {
	return nil
}

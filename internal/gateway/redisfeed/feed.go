package redisfeed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Feed implements gateway.Feed over a Redis subscription.
type Feed struct {
	client *redis.Client
	logger *zap.Logger
}

func NewFeed(client *redis.Client, logger *zap.Logger) *Feed {
	return &Feed{client: client, logger: logger}
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// Subscribe delivers events to handler until Close or ctx cancellation.
//
// Reconnection is handled here, not in the consumer: when the receive loop
// errors out, the subscription is torn down, re-established with backoff,
// and the handler gets a synthetic EventResubscribed so it can reload
// whatever the outage may have dropped.
func (f *Feed) Subscribe(ctx context.Context, handler gateway.Handler) (gateway.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	pubsub := f.client.Subscribe(ctx, Channel)
	// Receive forces the SUBSCRIBE round-trip now, so a dead Redis fails
	// Subscribe instead of silently delivering nothing.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, err
	}

	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go f.receiveLoop(ctx, pubsub, handler, sub.done)
	return sub, nil
}

func (f *Feed) receiveLoop(ctx context.Context, pubsub *redis.PubSub, handler gateway.Handler, done chan struct{}) {
	defer close(done)
	defer func() { _ = pubsub.Close() }()

	backoff := time.Second
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			f.logger.Warn("change feed dropped, resubscribing", zap.Error(err))
			_ = pubsub.Close()

			pubsub, err = f.resubscribe(ctx, &backoff)
			if err != nil {
				// Only on ctx cancellation; resubscribe retries forever.
				return
			}
			// Anything published while we were down is lost for good — tell
			// the consumer to reload.
			handler(gateway.Event{Type: gateway.EventResubscribed})
			continue
		}
		backoff = time.Second

		var event gateway.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			f.logger.Warn("malformed feed event", zap.String("payload", msg.Payload), zap.Error(err))
			continue
		}
		handler(event)
	}
}

func (f *Feed) resubscribe(ctx context.Context, backoff *time.Duration) (*redis.PubSub, error) {
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil, errors.New("subscription cancelled")
		case <-time.After(*backoff):
		}
		if *backoff < maxBackoff {
			*backoff *= 2
		}

		pubsub := f.client.Subscribe(ctx, Channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			f.logger.Warn("resubscribe failed", zap.Error(err), zap.Duration("next_retry", *backoff))
			_ = pubsub.Close()
			continue
		}
		return pubsub, nil
	}
}

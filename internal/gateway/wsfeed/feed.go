// Package wsfeed carries the change feed over a websocket connection to the
// feed bridge, for clients that cannot reach Redis directly (mobile,
// browser-adjacent processes). Push-only: the client never writes frames,
// but keeps reading so control frames are processed.
package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"go.uber.org/zap"
)

// Feed implements gateway.Feed by dialing the bridge's /v1/feed endpoint.
type Feed struct {
	url    string // ws://host/v1/feed
	token  string // JWT; sent as a query param because browser websockets can't set Authorization
	logger *zap.Logger
}

func NewFeed(url, token string, logger *zap.Logger) *Feed {
	return &Feed{url: url, token: token, logger: logger}
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

func (f *Feed) Subscribe(ctx context.Context, handler gateway.Handler) (gateway.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	conn, err := f.dial(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go f.readLoop(ctx, conn, handler, sub.done)
	return sub, nil
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, f.url+"?token="+f.token, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// closeOnDone closes conn when ctx is cancelled (to unblock ReadMessage) or
// when the read loop abandons this connection.
func closeOnDone(ctx context.Context, conn *websocket.Conn, abandoned <-chan struct{}) {
	select {
	case <-ctx.Done():
		_ = conn.Close()
	case <-abandoned:
	}
}

func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn, handler gateway.Handler, done chan struct{}) {
	defer close(done)

	abandoned := make(chan struct{})
	go closeOnDone(ctx, conn, abandoned)

	backoff := time.Second
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			close(abandoned)
			_ = conn.Close()
			if ctx.Err() != nil {
				return
			}

			f.logger.Warn("feed socket dropped, redialing", zap.Error(err))

			conn, err = f.redial(ctx, &backoff)
			if err != nil {
				return
			}
			abandoned = make(chan struct{})
			go closeOnDone(ctx, conn, abandoned)
			handler(gateway.Event{Type: gateway.EventResubscribed})
			continue
		}
		backoff = time.Second

		var event gateway.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			f.logger.Warn("malformed feed frame", zap.ByteString("payload", payload), zap.Error(err))
			continue
		}
		handler(event)
	}
}

func (f *Feed) redial(ctx context.Context, backoff *time.Duration) (*websocket.Conn, error) {
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

		conn, err := f.dial(ctx)
		if err != nil {
			f.logger.Warn("feed redial failed", zap.Error(err), zap.Duration("next_retry", *backoff))
			continue
		}
		return conn, nil
	}
}

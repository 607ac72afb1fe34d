// Package postgres implements gateway.Store on a pgx connection pool.
//
// Every successful write also publishes a change-feed event through the
// injected gateway.Publisher. Publishing is best-effort: a lost event is
// exactly the failure mode the client core's fallback refresh and
// reconnect-reload policies exist for, so a publish error is logged, never
// returned to the writer.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"go.uber.org/zap"
)

type Store struct {
	pool   *pgxpool.Pool
	feed   gateway.Publisher
	logger *zap.Logger
}

func NewStore(pool *pgxpool.Pool, feed gateway.Publisher, logger *zap.Logger) *Store {
	return &Store{pool: pool, feed: feed, logger: logger}
}

// publish emits a feed event for a completed write. Runs inline (the events
// are tiny and Redis publish is fast); failures are logged and swallowed.
func (s *Store) publish(event gateway.Event) {
	if s.feed == nil {
		return
	}
	// Not the caller's ctx: the write already succeeded, and a cancelled
	// request context should not suppress the event.
	if err := s.feed.Publish(context.Background(), event); err != nil {
		s.logger.Warn("publish feed event failed",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/chat"
	"github.com/lukose-dev/pawstream/internal/config"
	"github.com/lukose-dev/pawstream/internal/db"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/gateway/postgres"
	"github.com/lukose-dev/pawstream/internal/gateway/redisfeed"
	"github.com/lukose-dev/pawstream/internal/gateway/wsfeed"
	"github.com/lukose-dev/pawstream/internal/models"
	"github.com/lukose-dev/pawstream/internal/notify"
	"github.com/lukose-dev/pawstream/internal/observ"
	"github.com/lukose-dev/pawstream/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// client wires the full sync core against a live store and feed, signs in
// as DEMO_USER_ID, and stays resident logging what the feed drives into the
// directory. It exists to exercise the real wiring end to end; the mobile
// app embeds the same components.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	userID, err := uuid.Parse(config.GetEnv("DEMO_USER_ID", ""))
	if err != nil {
		return fmt.Errorf("DEMO_USER_ID must be a user uuid: %w", err)
	}

	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	store := postgres.NewStore(database.Pool(), redisfeed.NewPublisher(redisClient), logger)
	notifier := notify.NewRedisNotifier(redisClient, logger)

	// The feed transport is swappable: Redis pub/sub when the client can
	// reach Redis, the websocket bridge otherwise.
	var feed gateway.Feed
	switch cfg.FeedBackend {
	case "ws":
		feed = wsfeed.NewFeed(cfg.FeedURL, config.GetEnv("FEED_TOKEN", ""), logger)
	default:
		feed = redisfeed.NewFeed(redisClient, logger)
	}

	sess := session.New()
	sess.SignIn(userID)

	window := chat.NewWindow(store, logger)
	directory := chat.NewDirectory(store, sess, logger)
	sender := chat.NewSender(store, window, notifier, sess, cfg.FallbackRefreshDelay, logger)
	presence := chat.NewPresenceTracker(store, sess, logger)
	listener := chat.NewListener(feed, directory, window, sender, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := listener.Start(ctx); err != nil {
		return fmt.Errorf("start change-feed listener: %w", err)
	}
	defer listener.Stop()

	if err := directory.Refresh(ctx); err != nil {
		return fmt.Errorf("initial directory load: %w", err)
	}
	presence.SetStatus(ctx, models.PresenceOnline, nil)

	logger.Info("sync core running",
		zap.String("user_id", userID.String()),
		zap.String("feed_backend", cfg.FeedBackend),
		zap.Int("conversations", len(directory.List())),
		zap.Duration("fallback_delay", cfg.FallbackRefreshDelay),
	)

	<-ctx.Done()
	presence.SetStatus(context.Background(), models.PresenceOffline, nil)
	logger.Info("shutting down")
	return nil
}

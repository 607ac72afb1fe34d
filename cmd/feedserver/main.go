package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/lukose-dev/pawstream/internal/api"
	"github.com/lukose-dev/pawstream/internal/config"
	"github.com/lukose-dev/pawstream/internal/db"
	"github.com/lukose-dev/pawstream/internal/gateway/postgres"
	"github.com/lukose-dev/pawstream/internal/gateway/redisfeed"
	"github.com/lukose-dev/pawstream/internal/middleware"
	"github.com/lukose-dev/pawstream/internal/observ"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// feedserver is the feed bridge: it authenticates clients and relays the
// Redis change feed to them over websockets, for clients that cannot hold a
// Redis connection themselves.
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

	// Background() at startup: there is no parent deadline yet, and
	// connecting may take as long as it takes.
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
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	users := postgres.NewUserStore(database.Pool())
	feed := redisfeed.NewFeed(redisClient, logger)

	authHandler := api.NewAuthHandler(users, cfg.JWTSecret, logger)
	feedHandler := api.NewFeedHandler(feed, cfg.JWTSecret, cfg.Env != "production", logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Health is public — load balancers hit it without credentials.
	srv.GET("/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	srv.POST("/v1/token", authHandler.Token)
	// The feed endpoint authenticates via token query param inside the
	// handler (browser websockets can't set headers).
	srv.GET("/v1/feed", feedHandler.Handle)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	v1.GET("/me", func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": middleware.GetUserID(c)})
	})

	logger.Info("starting feed bridge",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)
	return srv.Run(":" + cfg.Port)
}

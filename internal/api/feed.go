package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lukose-dev/pawstream/internal/auth"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"go.uber.org/zap"
)

const (
	writeTimeout  = 10 * time.Second
	pingInterval  = 25 * time.Second
	sendQueueSize = 64
)

// FeedHandler bridges the Redis change feed onto client websockets, one
// subscription per connection. Push-only: clients never send data frames,
// but the handler keeps reading so close/ping/pong control frames are
// processed.
type FeedHandler struct {
	feed      gateway.Feed
	jwtSecret string
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

func NewFeedHandler(feed gateway.Feed, jwtSecret string, allowAnyOrigin bool, logger *zap.Logger) *FeedHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if allowAnyOrigin {
		// Dev only: the web client runs on a different origin than the
		// bridge. Production deploys behind the same origin.
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return &FeedHandler{
		feed:      feed,
		jwtSecret: jwtSecret,
		upgrader:  upgrader,
		logger:    logger,
	}
}

// Handle serves GET /v1/feed?token=...
//
// The token rides a query param because browser websockets cannot set an
// Authorization header.
func (h *FeedHandler) Handle(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := auth.ParseToken(tokenStr, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("user_id", claims.UserID.String()))
	logger.Info("feed client connected")
	defer logger.Info("feed client disconnected")

	// Buffered queue between the feed goroutine and the socket writer. A
	// slow client drops events rather than stalling the feed; the client
	// core treats its next reconnect-reload as the catch-up.
	queue := make(chan gateway.Event, sendQueueSize)

	sub, err := h.feed.Subscribe(c.Request.Context(), func(event gateway.Event) {
		select {
		case queue <- event:
		default:
			logger.Warn("feed client too slow, dropping event",
				zap.String("type", string(event.Type)),
			)
		}
	})
	if err != nil {
		logger.Error("feed subscribe failed", zap.Error(err))
		return
	}
	defer sub.Close()

	// Reader: discards data frames, processes control frames, and unblocks
	// the writer loop by closing `done` when the client goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case event := <-queue:
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Error("marshal feed event failed", zap.Error(err))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

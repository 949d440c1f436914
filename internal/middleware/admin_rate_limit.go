package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ActionCounter reports how often an admin performed an action since a time.
type ActionCounter interface {
	GetActionCount(ctx context.Context, adminID, action string, since time.Time) (int64, error)
}

// AdminActionRateLimit slows down mass destructive actions. The audit log is
// the counter; past blockAfter actions in the window the admin is blocked for
// an hour when redis is available.
func AdminActionRateLimit(audit ActionCounter, redisClient *redis.Client, action string, maxActions, blockAfter int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || maxActions <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		blockKey := fmt.Sprintf("admin_blocked:%s:%s", user.ID, action)

		if redisClient != nil {
			if blocked, err := redisClient.Get(ctx, blockKey).Result(); err == nil && blocked == "1" {
				ttl, _ := redisClient.TTL(ctx, blockKey).Result()
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":               "admin temporarily blocked",
					"blockedUntilMinutes": int(ttl.Minutes()),
				})
				return
			}
		}

		count, err := audit.GetActionCount(ctx, user.ID, action, time.Now().Add(-window))
		if err != nil {
			slog.Warn("admin action count failed", "action", action, "error", err)
			c.Next()
			return
		}

		if blockAfter > 0 && count >= int64(blockAfter) && redisClient != nil {
			_ = redisClient.Set(ctx, blockKey, "1", time.Hour).Err()
			slog.Warn("admin blocked for mass actions", "user_id", user.ID, "action", action, "count", count)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "admin temporarily blocked",
				"blockedForMinutes": 60,
			})
			return
		}
		if count >= int64(maxActions) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "too many actions in a short time",
				"retryAfterMinutes": int(window.Minutes()),
			})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// UploadRateLimit caps the number of upload requests per user per day. The
// counter resets at midnight UTC. It must run after Session.
func UploadRateLimit(redisClient *redis.Client, dailyLimit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if redisClient == nil || dailyLimit <= 0 || user == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		now := time.Now().UTC()
		key := fmt.Sprintf("upload_limit:%s:%s", user.ID, now.Format("2006-01-02"))

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis error - don't block upload
			slog.Warn("upload limiter unavailable", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
			_ = redisClient.Expire(ctx, key, midnight.Sub(now)).Err()
		}
		if count > int64(dailyLimit) {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":            "too many uploads today",
				"retryAfterHours":  int(ttl.Hours()),
				"maxUploadsPerDay": dailyLimit,
			})
			return
		}
		c.Next()
	}
}

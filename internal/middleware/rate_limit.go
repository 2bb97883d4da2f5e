package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/response"
)

// RateCounter counts hits of key in fixed windows.
type RateCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit caps requests per authenticated user. It must run after JWT.
// A counter failure lets the request through.
func RateLimit(counter RateCounter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if claims, ok := c.Get(ContextUserKey); ok {
			if jwtClaims, ok := claims.(*models.JWTClaims); ok {
				key = "user:" + jwtClaims.UserID
			}
		}

		count, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if count > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.AbortWithError(c, appErrors.Clone(appErrors.ErrTooManyRequests, "Muitas requisições. Tente novamente em instantes."))
			return
		}
		c.Next()
	}
}

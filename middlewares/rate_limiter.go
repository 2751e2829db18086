package middlewares

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	redisclient "github.com/danatour/booking/config/redis"
	"github.com/danatour/booking/logger"
)

func callerKey(c *gin.Context) string {
	if v, exists := c.Get("user_email"); exists {
		if email, ok := v.(string); ok && email != "" {
			return email
		}
	}
	return c.ClientIP()
}

// ParseCustomRate allows formats like "10-2m", "30-20m", "5-1h", "20-10s".
func ParseCustomRate(rateStr string) (limiter.Rate, error) {
	parts := strings.Split(rateStr, "-")
	if len(parts) != 2 {
		return limiter.Rate{}, fmt.Errorf("invalid rate format: %s", rateStr)
	}

	limit, err := strconv.Atoi(parts[0])
	if err != nil {
		return limiter.Rate{}, fmt.Errorf("invalid limit: %s", parts[0])
	}

	durationStr := parts[1]
	if durationStr == "" {
		return limiter.Rate{}, fmt.Errorf("invalid duration: %s", rateStr)
	}
	unit := durationStr[len(durationStr)-1:]
	n, err := strconv.Atoi(durationStr[:len(durationStr)-1])
	if err != nil {
		return limiter.Rate{}, fmt.Errorf("invalid duration: %s", durationStr)
	}

	var period time.Duration
	switch unit {
	case "s":
		period = time.Duration(n) * time.Second
	case "m":
		period = time.Duration(n) * time.Minute
	case "h":
		period = time.Duration(n) * time.Hour
	default:
		return limiter.Rate{}, fmt.Errorf("unsupported period: %s", durationStr)
	}

	return limiter.Rate{Period: period, Limit: int64(limit)}, nil
}

// NewRateLimiter creates per-caller rate limiting middleware with custom
// periods like "10-2m" for a specific route. When Redis is unavailable the
// middleware degrades to a pass-through rather than blocking requests.
func NewRateLimiter(rateStr, routeID string) gin.HandlerFunc {
	rate, err := ParseCustomRate(rateStr)
	if err != nil {
		logger.ErrorLogger.Errorf("Error parsing rate for route %s: %v", routeID, err)
		return func(c *gin.Context) { c.Next() }
	}

	rdb, err := redisclient.GetRedisClient(context.Background())
	if err != nil {
		logger.WarnLogger.Warnf("Rate limiter disabled for route %s: %v", routeID, err)
		return func(c *gin.Context) { c.Next() }
	}

	store, err := redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:          fmt.Sprintf("rate_limiter:%s", routeID),
		MaxRetry:        3,
		CleanUpInterval: rate.Period,
	})
	if err != nil {
		logger.ErrorLogger.Errorf("Error creating Redis store for route %s: %v", routeID, err)
		return func(c *gin.Context) { c.Next() }
	}

	instance := limiter.New(store, rate)
	return ginmiddleware.NewMiddleware(instance, ginmiddleware.WithKeyGetter(callerKey))
}

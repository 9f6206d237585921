package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/geocoder89/bankly/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit enforces the limiter for a key derived from the request.
func RateLimit(limiter ratelimit.Limiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		d := limiter.Allow(c.Request.Context(), c.FullPath()+"|"+key)
		if d.Allowed {
			c.Next()
			return
		}

		retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(retryAfter))

		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":    "rate_limited",
				"message": "Too many requests. Please try again shortly.",
				"status":  http.StatusTooManyRequests,
			},
		})
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by username if available
func KeyByUserOrIP(c *gin.Context) string {
	claims, ok := ClaimsFromContext(c)

	if ok && claims.Username != "" {
		return "user:" + claims.Username
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carebook/internal/auth"
	"carebook/internal/metrics"
)

const claimsContextKey = "carebook.claims"

// tokenValidator is the slice of the auth manager the middleware needs.
type tokenValidator interface {
	Validate(tokenString string, requiredRole auth.Role) (auth.Claims, error)
}

// AuthRequired rejects requests without a valid bearer token carrying the
// required role. Admin tokens pass every role gate.
func AuthRequired(validator tokenValidator, role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := validator.Validate(strings.TrimSpace(token), role)
		if err != nil {
			if errors.Is(err, auth.ErrWrongRole) {
				c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "insufficient role"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) (auth.Claims, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := v.(auth.Claims)
	return claims, ok
}

// RequestLogger emits one slog line per request.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info(
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// Instrument records request count, latency, and in-flight gauge. Paths
// are labeled by route template so cardinality stays bounded.
func Instrument(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		collector.InFlightGauge.Inc()
		start := time.Now()
		c.Next()
		collector.InFlightGauge.Dec()

		status := strconv.Itoa(c.Writer.Status())
		collector.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		collector.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

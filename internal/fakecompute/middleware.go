package fakecompute

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yaroslav/gcompute/internal/auth"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/names"
)

// requestLogger logs every request with a request ID and stores the
// request-scoped logger in the request context.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		start := time.Now()

		reqLogger := logger.With(
			zap.String("request_id", requestID),
			zap.String(logging.FieldMethod, c.Request.Method),
			zap.String(logging.FieldURL, c.Request.URL.Path),
		)
		c.Set("request_id", requestID)
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), reqLogger))

		c.Next()

		fields := []zap.Field{
			zap.Int(logging.FieldStatusCode, c.Writer.Status()),
			zap.Int64(logging.FieldDuration, time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			reqLogger.Error("request completed with server error", fields...)
		case status >= 400:
			reqLogger.Warn("request completed with client error", fields...)
		default:
			reqLogger.Debug("request completed", fields...)
		}
	}
}

// metricsMiddleware records request counts, durations and in-flight requests.
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.metrics.requestsInFlight.Inc()
		defer s.metrics.requestsInFlight.Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		s.metrics.requestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		s.metrics.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// recordCalls remembers every API request as "METHOD relative-path".
func (s *Server) recordCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, "/compute/"+c.Param("version")+"/")
		s.recordCall(c.Request.Method + " " + path)
		c.Next()
	}
}

// requireVersion rejects API versions the server does not know.
func requireVersion() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := c.Param("version")
		for _, v := range names.SupportedVersions {
			if v == version {
				c.Next()
				return
			}
		}
		respondError(c, http.StatusNotFound, "notFound", "Unknown API version '"+version+"'")
		c.Abort()
	}
}

// requireBearer rejects requests without the expected bearer token.
func requireBearer(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok || !auth.Validate(token, expected) {
			respondError(c, http.StatusUnauthorized, "authError", "Invalid Credentials")
			c.Abort()
			return
		}
		c.Next()
	}
}

// rateLimitByIP applies a token bucket per client IP and answers 429 when
// it is empty.
func rateLimitByIP(rps float64, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			respondError(c, http.StatusTooManyRequests, "rateLimitExceeded", "Rate Limit Exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

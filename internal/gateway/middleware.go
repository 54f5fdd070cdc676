package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"leadlms/internal/apikey"
	"leadlms/internal/metrics"
	"leadlms/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionKey is the gin context key holding the validated *session.Session.
const SessionKey = "session"

// LoginPath is where page requests without a session are sent.
const LoginPath = "/login"

// AccessMiddleware enforces policy for every request before routing.
func AccessMiddleware(policy Policy, sessions session.Manager, cookie session.Cookie, keys *apikey.Gate, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		switch policy.Classify(path) {
		case Public:
			c.Next()

		case NeedsAPIKey:
			if err := keys.CheckRequest(c.Request); err != nil {
				reason := "api_key_invalid"
				if errors.Is(err, apikey.ErrMissingAPIKey) {
					reason = "api_key_missing"
				}
				metrics.AccessDenied.WithLabelValues(reason).Inc()
				logger.Warn("API key rejected",
					"path", path,
					"reason", reason,
					"request_id", c.GetString("request_id"),
				)
				status, msg := apikey.Response(err)
				c.AbortWithStatusJSON(status, gin.H{"error": msg})
				return
			}
			c.Next()

		case NeedsSession:
			token := cookie.Token(c)
			sess, err := sessions.Validate(c.Request.Context(), token)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					logger.Error("Session lookup failed",
						"path", path,
						"error", err,
						"request_id", c.GetString("request_id"),
					)
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
					return
				}

				metrics.AccessDenied.WithLabelValues("no_session").Inc()
				if token != "" {
					cookie.Clear(c)
				}
				if IsAPIPath(path) {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
					return
				}
				c.Redirect(http.StatusFound, LoginPath)
				c.Abort()
				return
			}

			c.Set(SessionKey, sess)
			c.Next()
		}
	}
}

// CORSMiddleware allows the dashboard front end to call the API with cookies.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", apikey.Header},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestIDMiddleware generates a unique request ID for log correlation
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}

// LoggingMiddleware logs every request with structured attributes and
// counts it in the HTTP request metric.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Wrap the response writer to capture response size
		rw := newResponseWriter(c.Writer)
		c.Writer = rw

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, strconv.Itoa(status/100)+"xx").Inc()

		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", float64(latency.Microseconds()) / 1000,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"response_size", rw.Size(),
		}

		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}
		if sess, ok := CurrentSession(c); ok {
			attrs = append(attrs, "session_id", sess.ID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("Request failed - server error", attrs...)
		case status >= 400:
			logger.Warn("Request failed - client error", attrs...)
		default:
			logger.Info("Request completed", attrs...)
		}
	}
}

// CurrentSession returns the session attached by AccessMiddleware.
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SessionCookie = "sessionid"

// Identity resolves the caller from the Authorization header and the session
// cookie (or X-Session-ID header).
func Identity(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("X-Session-ID")
		if sessionID == "" {
			sessionID, _ = c.Cookie(SessionCookie)
		}
		id, err := v.Resolve(c.GetHeader("Authorization"), sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// EnsureSession issues an anonymous session cookie to callers that have
// neither a user nor a session, so a guest can hold a cart. Must run after
// Identity.
func EnsureSession(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := auth.FromContext(c.Request.Context())
		if id.UserID == "" && id.SessionID == "" {
			id.SessionID = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id.SessionID, int((14 * 24 * time.Hour).Seconds()), "/", "", secure, true)
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

// RequireStaff rejects callers that are not signed-in staff.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := auth.FromContext(c.Request.Context())
		switch {
		case id.UserID == "":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
		case !id.IsStaff:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
		default:
			c.Next()
		}
	}
}

// Observability logs and measures every HTTP request by route template.
func Observability(log logger.ZapLogger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		if m != nil {
			m.Requests.WithLabelValues("http", route, strconv.Itoa(code)).Inc()
			m.LatencyMS.WithLabelValues("http", route).Observe(float64(time.Since(start).Milliseconds()))
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", code),
			zap.Duration("duration", time.Since(start)),
		}
		if code >= http.StatusInternalServerError {
			log.Error("http request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		log.Debug("http request", fields...)
	}
}

package httpadapter

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PabloGalante/farum-wellness/internal/app/ratelimit"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const (
	headerRequestID = "X-Request-ID"
	ctxUserID       = "user_id"
)

// Authenticator resolves the caller of r.
type Authenticator interface {
	Authenticate(r *http.Request) (domain.UserID, error)
}

// withLogging assigns a request id and logs a summary of every request.
func withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(observability.WithRequestID(c.Request.Context(), reqID))

		c.Next()

		log := observability.LoggerFromContext(c.Request.Context())
		log.Info("request completed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// withCORS adds basic CORS headers to allow calls from a web front-end.
func withCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-User-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// withRecovery turns a panic into the generic 500 envelope.
func withRecovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		observability.LoggerFromContext(c.Request.Context()).Error("panic recovered", "panic", recovered)
		writeError(c, nil)
	})
}

// requireAuth rejects requests without a verified identity and stores the
// user id on both the gin and the request context.
func requireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.Authenticate(c.Request)
		if err != nil {
			observability.LoggerFromContext(c.Request.Context()).Info("unauthenticated request", "error", err)
			writeError(c, domain.Unauthenticated(err))
			return
		}
		c.Set(ctxUserID, userID)
		c.Request = c.Request.WithContext(observability.WithUserID(c.Request.Context(), string(userID)))
		c.Next()
	}
}

// withRateLimit admits the request under policy, keyed by client address and
// user agent, and reports the budget in X-RateLimit-* headers. The address
// comes from gin, which only honours forwarding headers from trusted proxies.
func withRateLimit(g *ratelimit.Governor, policy ratelimit.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ratelimit.ClientIdentifier(c.ClientIP(), c.GetHeader("User-Agent"))
		d, err := g.Admit(c.Request.Context(), policy, id)
		if err != nil {
			writeError(c, err)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(policy.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.UnixMilli(), 10))

		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter(time.Until(d.ResetAt))))
			writeError(c, domain.Throttled())
			return
		}
		c.Next()
	}
}

// retryAfter rounds the wait up to whole seconds, never below one.
func retryAfter(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func userID(c *gin.Context) domain.UserID {
	id, _ := c.Get(ctxUserID)
	uid, _ := id.(domain.UserID)
	return uid
}

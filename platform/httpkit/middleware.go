// Package httpkit holds the gin middleware and response helpers shared by
// every module.
package httpkit

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"estate_analyzer/platform/apperr"
	"estate_analyzer/platform/config"
	"estate_analyzer/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// HeaderRequestID carries the request ID in and out of the service.
	HeaderRequestID = "X-Request-ID"
	// ContextRequestIDKey is the gin context key for the request ID.
	ContextRequestIDKey = "requestID"

	maxRequestIDLength = 128
)

// RequestID assigns every request an ID, reusing a sane inbound X-Request-ID.
// The ID is stored on the gin context and on the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Set(ContextRequestIDKey, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the request ID assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}

// RequestLogger writes one line per request, plus the recorded error of a 5xx.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		reqLog := log.WithContext(c.Request.Context())
		method, path, status, ip := c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP()
		if last := c.Errors.Last(); last != nil && status >= http.StatusInternalServerError {
			reqLog.HTTPError(method, path, status, last.Err, ip)
		}
		reqLog.HTTPRequest(method, path, status, float64(time.Since(began).Milliseconds()), ip)
	}
}

var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cache-Control", "no-store"},
}

// SecurityHeaders sets the headers of a JSON-only API. HSTS is only sent over TLS.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range securityHeaders {
			c.Header(h[0], h[1])
		}
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// CORS builds the cross-origin policy from configuration.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", HeaderRequestID},
		ExposeHeaders:    []string{HeaderRequestID},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return cors.New(corsCfg)
}

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than BucketIdleTTL are swept, so memory is bounded by the number of
// clients seen within that window.
type IPRateLimiter struct {
	buckets   sync.Map // ip -> *ipBucket
	every     rate.Limit
	burst     int
	log       *logger.Logger
	now       func() time.Time
	lastSweep atomic.Int64
}

// BucketIdleTTL is how long an IP's bucket outlives its last request.
const BucketIdleTTL = 10 * time.Minute

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewIPRateLimiter allows each IP r requests per second with the given burst.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	i := &IPRateLimiter{every: r, burst: burst, log: log, now: time.Now}
	i.lastSweep.Store(i.now().UnixNano())
	return i
}

// NewIPRateLimiterFromConfig creates a limiter with the configured rate and burst.
func NewIPRateLimiterFromConfig(cfg config.RateLimitConfig, log *logger.Logger) *IPRateLimiter {
	return NewIPRateLimiter(rate.Limit(cfg.GetRateLimitRPS()), cfg.GetRateLimitBurst(), log)
}

func (i *IPRateLimiter) bucket(ip string, now time.Time) *rate.Limiter {
	v, ok := i.buckets.Load(ip)
	if !ok {
		v, _ = i.buckets.LoadOrStore(ip, &ipBucket{limiter: rate.NewLimiter(i.every, i.burst)})
	}
	b := v.(*ipBucket)
	b.lastSeen.Store(now.UnixNano())
	return b.limiter
}

// sweep drops idle buckets at most once per BucketIdleTTL.
func (i *IPRateLimiter) sweep(now time.Time) {
	last := i.lastSweep.Load()
	if now.UnixNano()-last < int64(BucketIdleTTL) || !i.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-BucketIdleTTL).UnixNano()
	i.buckets.Range(func(key, v any) bool {
		if v.(*ipBucket).lastSeen.Load() < cutoff {
			i.buckets.Delete(key)
		}
		return true
	})
}

// RateLimit rejects requests over the budget with 429.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := i.now()
		i.sweep(now)

		ip := c.ClientIP()
		if !i.bucket(ip, now).Allow() {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Kind:  apperr.KindTooManyRequests.String(),
			})
			return
		}

		c.Next()
	}
}

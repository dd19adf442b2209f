package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cookmate/internal/auth"
	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
)

const (
	headerRequestID = "X-Request-Id"
	ctxRequestID    = "request_id"
	ctxUserID       = "user_id"
)

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Limiter answers whether key may make another request in this window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RequestID propagates the caller's X-Request-Id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequestLogger emits one http_request line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		kv := []interface{}{
			"request_id", requestID(c),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if id := userID(c); id > 0 {
			kv = append(kv, "user_id", id)
		}
		log.Info("http_request", kv...)
	}
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: errorBody{
				Message: "Invalid or expired token",
				Code:    "invalid_token",
			}})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// otherwise treats the request as anonymous.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, tokens); ok {
			c.Set(ctxUserID, claims.UserID)
		}
		c.Next()
	}
}

// RateLimit limits requests per client IP under scope. A limiter failure
// lets the request through.
func RateLimit(limiter Limiter, scope string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		allowed, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", "scope", scope, "request_id", requestID(c), "error", err)
			c.Next()
			return
		}
		if !allowed {
			respondError(c, log, apierr.New(apierr.KindTooManyRequests, "rate_limited", "Too many requests. Please try again later."))
			return
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, tokens TokenParser) (*auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, false
	}
	claims, err := tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// userID is the authenticated caller, or 0 when anonymous.
func userID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

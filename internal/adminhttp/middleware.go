package adminhttp

import (
	"net/http"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/logger"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const identityKey = "identity"

// resolveAuth resolves the session cookie or bearer token to an Account +
// Profile and stores it on the request context, the entry point for every
// admin route. A missing/invalid token leaves the request anonymous rather
// than aborting, so public routes (none currently) can opt in to auth
// later; requireAdmin is what actually gates access.
func resolveAuth(store *persistence.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("session")
		if err != nil || token == "" {
			token = c.GetHeader("Authorization")
			if len(token) > 7 && token[:7] == "Bearer " {
				token = token[7:]
			}
		}
		if token == "" {
			c.Next()
			return
		}

		identity, err := persistence.AccountByAuthToken(c.Request.Context(), store.DB(), token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// requireAdmin gates a route behind the ADMINISTRATOR role; every admin
// route requires it.
func requireAdmin(c *gin.Context) {
	raw, ok := c.Get(identityKey)
	if !ok {
		fail(c, apperrors.New(apperrors.KindUnauthenticated, "session required"))
		c.Abort()
		return
	}
	identity := raw.(model.Identity)
	if !identity.IsAdministrator() {
		fail(c, apperrors.New(apperrors.KindNotAdmin, "administrator role required"))
		c.Abort()
		return
	}
	c.Next()
}

// requireTestEnv gates the `/test/*` surface behind NODE_ENV=test.
func requireTestEnv(isTest bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isTest {
			c.JSON(http.StatusNotFound, gin.H{"error": true, "code": "NOT_FOUND", "message": "not found"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// rateLimit caps the admin surface at rps sustained with a burst headroom,
// backed by x/time/rate.
func rateLimit(rps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": true, "code": "RATE_LIMITED", "message": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs one structured line per request, warn/error promoted
// by status code.
func requestLogger(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	c.Next()
	duration := time.Since(start)

	fields := []zap.Field{
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("path", path),
		zap.Duration("duration", duration),
	}
	switch status := c.Writer.Status(); {
	case status >= 500:
		logger.Error("admin http request", fields...)
	case status >= 400:
		logger.Warn("admin http request", fields...)
	default:
		logger.Info("admin http request", fields...)
	}
}

// zapRecovery catches a panic in any handler, logs it structured, and
// answers 500 instead of crashing the process.
func zapRecovery() gin.HandlerFunc {
	return gin.RecoveryWithWriter(gin.DefaultWriter, func(c *gin.Context, err any) {
		logger.Error("admin http panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

func identityFrom(c *gin.Context) model.Identity {
	raw, _ := c.Get(identityKey)
	identity, _ := raw.(model.Identity)
	return identity
}

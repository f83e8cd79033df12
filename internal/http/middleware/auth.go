package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	AdminKeyHeader = "X-Admin-Key"
	UserIDHeader   = "X-User-ID"

	userContextKey contextKey = "user"
)

// AdminAuth guards the operator API with a shared key. An empty key turns
// the check off, which config only allows outside production.
func AdminAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		got := c.GetHeader(AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
			return
		}
		c.Next()
	}
}

// RequireUser attaches the acting staff member from X-User-ID. Identity is
// established upstream; this only refuses anonymous mutations.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}
		ctx := context.WithValue(c.Request.Context(), userContextKey, user)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func GetUser(ctx context.Context) string {
	user, _ := ctx.Value(userContextKey).(string)
	return user
}

func tenantParam(c *gin.Context) (int64, bool) {
	raw := c.Param("tenant_id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

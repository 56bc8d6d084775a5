package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/pointledger/internal/pkg/auth"
)

// PrincipalContextKey is a gin context key for the authenticated principal.
const PrincipalContextKey = "principal"

// TokenParser verifies bearer tokens.
type TokenParser interface {
	ParseToken(token string) (pkgAuth.Principal, error)
}

// AuthRequired ensures user is authenticated before accessing handler.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		principal, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(PrincipalContextKey, principal)
		c.Next()
	}
}

// AdminRequired rejects principals without the admin role. It must run
// after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Principal(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !principal.IsAdmin() {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// Principal returns the principal stored by AuthRequired.
func Principal(c *gin.Context) (pkgAuth.Principal, bool) {
	val, ok := c.Get(PrincipalContextKey)
	if !ok {
		return pkgAuth.Principal{}, false
	}
	principal, ok := val.(pkgAuth.Principal)
	return principal, ok
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

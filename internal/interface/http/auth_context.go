package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/health-voice/internal/domain/auth"
)

const authClaimsKey = "auth_claims"

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(authClaimsKey, claims)
}

func getClaims(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}

// resolveUserID prefers the authenticated subject over a client supplied id.
func resolveUserID(c *gin.Context, requested string) string {
	if claims, ok := getClaims(c); ok && claims.UserID != "" {
		return claims.UserID
	}
	return strings.TrimSpace(requested)
}

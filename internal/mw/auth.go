package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"equipment-maintenance-backend/internal/lifecycle"
)

// Context keys set by the auth middleware.
const (
	CtxRole        = "role"
	CtxPersonnelID = "personnel_id"
)

// roleClaims is the claim shape issued by the identity collaborator.
type roleClaims struct {
	Role        string `json:"role"`
	PersonnelID string `json:"personnel_id"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token and stores the parsed role and personnel
// ID on the context. The role claim is treated as an opaque capability tag;
// authorization happens per transition in the lifecycle service.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := &roleClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(CtxRole, lifecycle.ParseRole(claims.Role))
		c.Set(CtxPersonnelID, claims.PersonnelID)
		c.Next()
	}
}

// RoleFrom returns the caller's role from the gin context.
func RoleFrom(c *gin.Context) lifecycle.Role {
	if v, ok := c.Get(CtxRole); ok {
		if r, ok := v.(lifecycle.Role); ok {
			return r
		}
	}
	return lifecycle.RoleUnknown
}

// PersonnelIDFrom returns the caller's personnel ID from the gin context.
func PersonnelIDFrom(c *gin.Context) string {
	return c.GetString(CtxPersonnelID)
}

package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/apperr"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/metrics"
)

// RoleLookup returns the stored role of a user. A missing profile must be
// reported as an apperr NotFound error.
type RoleLookup interface {
	LookupRole(ctx context.Context, uid string) (string, error)
}

const roleKey = "role"

// LoadRole stores the caller's role on the context ("" when the caller has no
// profile) without rejecting anyone. Must run after AuthMiddleware.
func LoadRole(lookup RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
			return
		}
		role, err := lookup.LookupRole(c.Request.Context(), p.UID)
		if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			logger.Errorf("role lookup failed uid=%s: %v", p.UID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Role check failed"})
			return
		}
		c.Set(roleKey, role)
		c.Next()
	}
}

// RequireRole rejects callers whose stored role is not role. It reuses the
// role loaded by LoadRole when present.
func RequireRole(lookup RoleLookup, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
			return
		}
		stored, loaded := RoleFrom(c)
		if !loaded {
			var err error
			stored, err = lookup.LookupRole(c.Request.Context(), p.UID)
			if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
				logger.Errorf("role lookup failed uid=%s: %v", p.UID, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Admin check failed"})
				return
			}
			c.Set(roleKey, stored)
		}
		if stored == "" {
			metrics.AuthFailures.WithLabelValues("no_profile").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "No profile"})
			return
		}
		if stored != role {
			metrics.AuthFailures.WithLabelValues("forbidden").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin only"})
			return
		}
		c.Next()
	}
}

// RoleFrom returns the role stored by LoadRole or RequireRole.
func RoleFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(roleKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

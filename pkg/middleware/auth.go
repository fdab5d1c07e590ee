package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/metrics"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// RevocationChecker reports tokens revoked before their expiry. Optional.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Principal is the authenticated caller.
type Principal struct {
	UID   string
	Email string
	Token string
}

const (
	principalKey = "principal"
	claimsKey    = "claims"
)

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using
// the provided verifier and stores the Principal on the context.
func AuthMiddleware(ver Verifier, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, "missing_token", "Missing token")
			return
		}
		if ver == nil {
			reject(c, "no_verifier", "Invalid token")
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debugf("token verification failed: %v", err)
			reject(c, "invalid_token", "Invalid token")
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			reject(c, "invalid_claims", "Invalid token")
			return
		}
		uid := claimString(claims, "sub", "uid", "user_id")
		if uid == "" {
			reject(c, "invalid_claims", "Invalid token")
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), token)
			if err != nil {
				logger.Errorf("revocation check failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Auth check failed"})
				return
			}
			if isRevoked {
				reject(c, "revoked", "Token revoked")
				return
			}
		}

		c.Set(claimsKey, claims)
		c.Set(principalKey, Principal{UID: uid, Email: claimString(claims, "email"), Token: token})
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by AuthMiddleware.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// bearerToken extracts the credential from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func claimString(claims map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := claims[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func reject(c *gin.Context, reason, msg string) {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
}

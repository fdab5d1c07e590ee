package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/httpx"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/revocation"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/middleware"
)

// AuthHandler serves session endpoints. Sign-in happens at the identity
// provider, so only logout lives here.
type AuthHandler struct {
	revoked *revocation.List
	// fallbackTTL is used for tokens whose exp cannot be read.
	fallbackTTL time.Duration
}

func NewAuthHandler(revoked *revocation.List, fallbackTTL time.Duration) *AuthHandler {
	return &AuthHandler{revoked: revoked, fallbackTTL: fallbackTTL}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg gin.IRouter, authn gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/logout", authn, h.Logout)
}

// Logout revokes the presented access token until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		httpx.Message(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	ttl := h.fallbackTTL
	if exp, err := revocation.Expiry(p.Token); err == nil {
		ttl = time.Until(exp)
	} else {
		logger.Debugf("logout: no exp in token for uid=%s: %v", p.UID, err)
	}
	if err := h.revoked.Revoke(c.Request.Context(), p.Token, ttl); err != nil {
		logger.Errorf("logout: revoke failed uid=%s: %v", p.UID, err)
		httpx.Message(c, http.StatusInternalServerError, "Failed to revoke token")
		return
	}
	httpx.Message(c, http.StatusOK, "Logged out")
}

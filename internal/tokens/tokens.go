package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/config"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
)

// GenerateAccessToken creates an HS256 token for u, accepted by the
// development verifier configured with the same JWT secret.
func GenerateAccessToken(cfg *config.Config, u *users.User, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.UID,
		"name":  u.FullName(),
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

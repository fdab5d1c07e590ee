// Package revocation keeps a Redis list of bearer tokens revoked by logout
// before their natural expiry.
package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:access:"

// List is safe to use with a nil Redis client; every call is then a no-op.
type List struct {
	client *redis.Client
}

func NewList(client *redis.Client) *List {
	return &List{client: client}
}

// tokens are stored hashed so the raw credential never sits in Redis
func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Revoke stores token for ttl. A non-positive ttl means the token has already
// expired and nothing is stored.
func (l *List) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if l == nil || l.client == nil || ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, key(token), "1", ttl).Err()
}

// IsRevoked reports whether token was revoked and has not yet expired.
func (l *List) IsRevoked(ctx context.Context, token string) (bool, error) {
	if l == nil || l.client == nil {
		return false, nil
	}
	n, err := l.client.Exists(ctx, key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Expiry reads the exp claim of a JWT without verifying it. Callers must have
// verified the token already.
func Expiry(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("exp claim not present")
	}
	return exp.Time, nil
}

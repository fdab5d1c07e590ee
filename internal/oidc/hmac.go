package oidc

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/claimdesk/claimdesk/backend/go-services/pkg/middleware"
)

// HMACVerifier accepts HS256 tokens signed with a shared secret. It backs
// local development where no identity provider is running; tokens are minted
// with `claimsctl devtoken`.
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("hmac verifier: empty secret")
	}
	return &HMACVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}, nil
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return &claimsToken{claims: claims}, nil
}

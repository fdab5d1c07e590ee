package oidc

import (
	"context"
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"

	"github.com/claimdesk/claimdesk/backend/go-services/pkg/middleware"
)

// claimsToken exposes a parsed claim set through middleware.Token.
type claimsToken struct {
	claims jwt.MapClaims
}

func (t *claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// InsecureVerifier implements a verifier that does NOT validate signatures.
// Only intended for local/integration tests under explicit opt-in via env var.
type InsecureVerifier struct {
	parser *jwt.Parser
}

func NewInsecureVerifier() *InsecureVerifier {
	return &InsecureVerifier{parser: jwt.NewParser()}
}

func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return &claimsToken{claims: claims}, nil
}

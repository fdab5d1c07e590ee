// Package identity creates accounts in the identity provider. Token
// verification lives in internal/oidc.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"golang.org/x/oauth2/clientcredentials"
)

// ErrEmailExists is returned when the provider already has an account for the email.
var ErrEmailExists = errors.New("email already exists")

// Account is the data needed to register a login with the provider.
type Account struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// KeycloakAdmin talks to the Keycloak admin REST API with a service-account
// token obtained through the client-credentials grant.
type KeycloakAdmin struct {
	baseURL string
	realm   string
	client  *http.Client
}

// NewKeycloakAdmin builds an admin client for realm. The returned client
// fetches and refreshes its bearer token on demand.
func NewKeycloakAdmin(ctx context.Context, baseURL, realm, clientID, clientSecret string) *KeycloakAdmin {
	base := strings.TrimRight(baseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     base + "/realms/" + realm + "/protocol/openid-connect/token",
	}
	return &KeycloakAdmin{baseURL: base, realm: realm, client: cc.Client(ctx)}
}

type keycloakCredential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type keycloakUser struct {
	Username      string               `json:"username"`
	Email         string               `json:"email"`
	FirstName     string               `json:"firstName"`
	LastName      string               `json:"lastName"`
	Enabled       bool                 `json:"enabled"`
	EmailVerified bool                 `json:"emailVerified"`
	Credentials   []keycloakCredential `json:"credentials"`
}

// CreateAccount registers a new enabled user with a permanent password and
// returns the provider-assigned uid.
func (k *KeycloakAdmin) CreateAccount(ctx context.Context, a Account) (string, error) {
	body, err := json.Marshal(keycloakUser{
		Username:    a.Email,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Enabled:     true,
		Credentials: []keycloakCredential{{Type: "password", Value: a.Password}},
	})
	if err != nil {
		return "", err
	}
	url := k.baseURL + "/admin/realms/" + k.realm + "/users"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("keycloak create user: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", errors.New("keycloak create user: response has no Location header")
		}
		return path.Base(loc), nil
	case http.StatusConflict:
		return "", ErrEmailExists
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("keycloak create user returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

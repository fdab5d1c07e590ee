package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
)

func TestDevTokenCommand(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "dev-secret")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"devtoken", "--uid", "admin1", "--email", "a@example.com", "--ttl", "5m"})
	require.NoError(t, root.Execute())

	raw := strings.TrimSpace(out.String())
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("dev-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.Equal(t, "admin1", claims["sub"])
	require.Equal(t, "a@example.com", claims["email"])
}

func TestDevTokenCommand_RequiresUID(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "dev-secret")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"devtoken"})
	require.Error(t, root.Execute())
}

func TestBootstrapAdmin(t *testing.T) {
	repo := users.NewMemoryUserRepository()
	svc := users.NewService(repo, nil)
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	pf := profileFlags{uid: "kc-1", email: "root@example.com", firstName: "Root", lastName: "Admin"}
	require.NoError(t, bootstrapAdmin(context.Background(), svc, pf, cmd))
	require.Contains(t, out.String(), "kc-1")

	role, err := svc.GetRole(context.Background(), "kc-1")
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, role)

	require.Error(t, bootstrapAdmin(context.Background(), svc, pf, cmd))
}

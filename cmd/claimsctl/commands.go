package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/config"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/database"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/tokens"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "claimsctl",
		Short:        "Operator tools for the claims service",
		SilenceUsage: true,
	}
	root.AddCommand(newBootstrapAdminCmd(), newDevTokenCmd())
	return root
}

type profileFlags struct {
	uid, email, firstName, lastName string
}

func (f *profileFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.uid, "uid", "", "identity provider user id (token sub)")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("uid")
}

func (f *profileFlags) user(role users.Role) *users.User {
	return &users.User{UID: f.uid, Email: f.email, FirstName: f.firstName, LastName: f.lastName, Role: role}
}

// newBootstrapAdminCmd stores an admin profile for an account that already
// exists at the identity provider. Every later user can then be created
// through POST /users.
func newBootstrapAdminCmd() *cobra.Command {
	var pf profileFlags
	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the admin profile for an existing identity provider account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 3, time.Second)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			repo := users.NewMongoUserRepository(client.Database(cfg.MongoDB.Database).Collection(database.UsersCollection))
			return bootstrapAdmin(ctx, users.NewService(repo, nil), pf, cmd)
		},
	}
	pf.bind(cmd)
	return cmd
}

func bootstrapAdmin(ctx context.Context, svc *users.Service, pf profileFlags, cmd *cobra.Command) error {
	u := pf.user(users.RoleAdmin)
	u.CreatedBy = "claimsctl"
	if err := svc.CreateProfile(ctx, u); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin profile created for %s\n", u.UID)
	return nil
}

// newDevTokenCmd prints an HS256 bearer token accepted when the server runs
// with the same JWT_SECRET and no Keycloak configuration.
func newDevTokenCmd() *cobra.Command {
	var pf profileFlags
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Mint a development bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}
			tok, err := tokens.GenerateAccessToken(cfg, pf.user(""), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	pf.bind(cmd)
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

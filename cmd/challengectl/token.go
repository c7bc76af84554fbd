package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"challengeflow/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API credentials",
	}

	cmd.AddCommand(newTokenIssueCmd())
	cmd.AddCommand(newTokenHashSecretCmd())

	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var subject, companyID, role string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint a bearer token signed with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret (or CHALLENGEFLOW_JWT_SECRET) is not set")
			}
			svc := auth.NewService(auth.NewStaticClients(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			res, err := svc.Issue(subject, companyID, auth.Role(role))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"token":     res.Token,
				"expiresAt": res.Claims.ExpiresAt.UTC().Format(time.RFC3339),
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "challengectl", "token subject")
	cmd.Flags().StringVar(&companyID, "company", "", "company id (required for carrier tokens)")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleCarrier), "carrier or operator")

	return cmd
}

func newTokenHashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret",
		Short: "Hash a client secret read from stdin for auth.clients[].secret_hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read secret: %w", err)
			}
			hash, err := auth.HashSecret(strings.TrimSpace(line))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

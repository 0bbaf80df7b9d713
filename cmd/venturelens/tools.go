package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/venturelens/venturelens/internal/analysis"
	auth "github.com/venturelens/venturelens/internal/auth/middleware"
	"github.com/venturelens/venturelens/internal/db"
	"github.com/venturelens/venturelens/internal/rbac"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <scoring.json> [anomaly.json]",
		Short: "Normalize saved webhook responses and print the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := normalizeFiles(args...)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func normalizeFiles(paths ...string) (analysis.Result, error) {
	raws := make([]map[string]any, 2)
	for i, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return analysis.Result{}, err
		}
		raws[i], err = analysis.DecodeRaw(b)
		if err != nil {
			return analysis.Result{}, fmt.Errorf("%s: %w", p, err)
		}
	}
	return analysis.Normalize(raws[0], raws[1]), nil
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASS_HASH or users.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var sub, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with AUTH_HMAC_SECRET (development)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validRole(role) {
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tok, err := auth.NewAuthService(cfg.AuthHMACSecret).IssueJWT(sub, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "subject (user id)")
	cmd.Flags().StringVar(&role, "role", rbac.RoleFounder, "founder, investor or admin")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func newUserCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage local accounts"}

	var role string
	add := &cobra.Command{
		Use:   "add <username> <password>",
		Short: "Create a founder or investor account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
			if err != nil {
				return err
			}
			defer dbh.Close()
			u, err := auth.NewUserStore(dbh, cfg.AdminUser, cfg.AdminPassHash).Create(ctx, args[0], args[1], role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.ID, u.Username, u.Role)
			return nil
		},
	}
	add.Flags().StringVar(&role, "role", rbac.RoleFounder, "founder or investor")
	user.AddCommand(add)
	return user
}

func validRole(r string) bool {
	switch r {
	case rbac.RoleFounder, rbac.RoleInvestor, rbac.RoleAdmin:
		return true
	}
	return false
}

package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cuentas/internal/auth"
	"cuentas/internal/core"
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)

	userAddCmd.Flags().String("email", "", "Email address (required)")
	userAddCmd.Flags().String("name", "", "Display name")
	userAddCmd.Flags().String("role", string(core.RoleViewer), "Edición or Visualización")
	userAddCmd.Flags().String("password", "", "Initial password (defaults to $CUENTAS_PASSWORD)")
	_ = userAddCmd.MarkFlagRequired("email")
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an active account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		roleFlag, _ := cmd.Flags().GetString("role")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("CUENTAS_PASSWORD")
		}
		role, err := core.ParseRole(roleFlag)
		if err != nil {
			return fmt.Errorf("role %q: %w", roleFlag, err)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		u, err := a.auth.CreateUser(ctx, auth.NewUser{Email: email, Name: name, Password: password, Role: role})
		if err != nil {
			if msg := auth.Message(err); msg != "" {
				return fmt.Errorf("%s", msg)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with id %s\n", u.Email, u.Role, u.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close(ctx)
		return listUsers(ctx, a.auth, cmd)
	},
}

func listUsers(ctx context.Context, svc *auth.Service, cmd *cobra.Command) error {
	users, err := svc.ListUsers(ctx)
	if err != nil {
		return err
	}
	slices.SortFunc(users, func(a, b core.User) int { return strings.Compare(a.Email, b.Email) })

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tROLE\tSTATUS\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.Email, u.Name, u.Role, u.Status, u.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

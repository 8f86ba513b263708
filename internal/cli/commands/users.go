package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/gate"
	"github.com/pricewatch-dev/pricewatch/internal/role"
)

// NewUsersCmd creates the users command group (admin only)
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage marketplace accounts (admin only)",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersSetRoleCmd())

	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmd.Context())
		},
	}
}

func runUsersList(ctx context.Context, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Admin(), "/dashboard/users"); err != nil {
		return err
	}

	users, err := a.client.Users(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tROLE")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Email, u.Name, u.Role)
	}
	w.Flush()

	return nil
}

func newUsersSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <user|vendor|admin>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersSetRole(cmd.Context(), args[0], args[1])
		},
	}
}

func runUsersSetRole(ctx context.Context, email, newRole string, opts ...appOption) error {
	if !role.Parse(newRole).Known() {
		return fmt.Errorf("invalid role %q (want user, vendor or admin)", newRole)
	}

	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Admin(), "/dashboard/users"); err != nil {
		return err
	}

	if err := a.client.SetUserRole(ctx, email, newRole); err != nil {
		return err
	}

	// The cached role for this account is stale now
	a.roles.Invalidate(email)

	fmt.Fprintf(a.out, "✓ %s is now %s\n", email, newRole)
	return nil
}

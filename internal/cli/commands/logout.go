package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context())
		},
	}
}

func runLogout(ctx context.Context, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if !a.sessions.Current().SignedIn() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	if err := a.sessions.SignOut(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	fmt.Fprintln(a.out, "✓ Signed out")
	return nil
}

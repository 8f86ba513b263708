package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/gate"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context())
		},
	}
}

func runWhoami(ctx context.Context, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/dashboard"); err != nil {
		return err
	}

	id := a.sessions.Current().Identity
	fmt.Fprintf(a.out, "User:  %s\n", id.DisplayName)
	fmt.Fprintf(a.out, "Email: %s\n", id.Email)
	if id.PhotoURL != "" {
		fmt.Fprintf(a.out, "Photo: %s\n", id.PhotoURL)
	}

	r, err := a.currentRole(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Role:  %s\n", r)

	return nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/gate"
)

// NewProfileCmd creates the profile command
func NewProfileCmd() *cobra.Command {
	var name, photoURL string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update display name and photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd.Context(), name, photoURL)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&photoURL, "photo", "", "New profile photo URL")

	return cmd
}

func runProfile(ctx context.Context, name, photoURL string, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/dashboard/profile"); err != nil {
		return err
	}

	if name == "" && photoURL == "" {
		return fmt.Errorf("nothing to update (use --name and/or --photo)")
	}

	// Preserve attributes the caller didn't change
	id := a.sessions.Current().Identity
	if name == "" {
		name = id.DisplayName
	}
	if photoURL == "" {
		photoURL = id.PhotoURL
	}

	if err := a.sessions.UpdateProfile(ctx, name, photoURL); err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}

	fmt.Fprintln(a.out, "✓ Profile updated")
	return nil
}

package commands

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var email, password, name, photoURL string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a marketplace account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), email, password, name, photoURL)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&photoURL, "photo", "", "Profile photo URL")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runRegister(ctx context.Context, email, password, name, photoURL string, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag)")
		}
		fmt.Fprint(a.out, "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(a.out)
	}

	id, err := a.sessions.CreateAccount(ctx, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	// Display attributes ride on the profile, not on account creation
	if name != "" || photoURL != "" {
		if err := a.sessions.UpdateProfile(ctx, name, photoURL); err != nil {
			return fmt.Errorf("account created but profile update failed: %w", err)
		}
	}

	fmt.Fprintf(a.out, "✓ Account created for %s\n", id.Email)
	return nil
}

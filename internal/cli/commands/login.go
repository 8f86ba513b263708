package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string
	var google bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the marketplace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password, google)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set PRICEWATCH_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set PRICEWATCH_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&google, "google", false, "Sign in with the federated Google flow")

	return cmd
}

func runLogin(ctx context.Context, email, password string, google bool, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if google {
		id, err := a.sessions.SignInWithProvider(ctx)
		if err != nil {
			return fmt.Errorf("federated sign-in failed: %w", err)
		}
		fmt.Fprintf(a.out, "✓ Signed in as %s (%s)\n", id.DisplayName, id.Email)
		return nil
	}

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("PRICEWATCH_EMAIL")
	}
	if password == "" {
		password = os.Getenv("PRICEWATCH_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or PRICEWATCH_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Fprint(a.out, "Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Fprintln(a.out)
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or PRICEWATCH_PASSWORD env var)")
		}
	}

	id, err := a.sessions.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Login successful!\n")
	fmt.Fprintf(a.out, "  User: %s (%s)\n", id.DisplayName, id.Email)

	if r, err := a.currentRole(ctx); err == nil && r.Known() {
		fmt.Fprintf(a.out, "  Role: %s\n", r)
	}

	return nil
}

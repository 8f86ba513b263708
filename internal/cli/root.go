package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "pricewatch",
	Short: "Pricewatch - Daily local-market price tracker",
	Long: `Pricewatch CLI - Track and submit local-market commodity prices.

Browse market listings, keep a watchlist with price alerts, and manage
vendor submissions and user roles from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pricewatch version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewProductsCmd())
	rootCmd.AddCommand(commands.NewOffersCmd())
	rootCmd.AddCommand(commands.NewAdsCmd())
	rootCmd.AddCommand(commands.NewReviewsCmd())
	rootCmd.AddCommand(commands.NewWatchlistCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewPayCmd())
	rootCmd.AddCommand(commands.NewPaymentsCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

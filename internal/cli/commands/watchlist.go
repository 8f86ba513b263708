package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/gate"
	"github.com/pricewatch-dev/pricewatch/internal/watch"
)

// NewWatchlistCmd creates the watchlist command group
func NewWatchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage watched products and run the price watcher",
	}

	cmd.AddCommand(newWatchlistListCmd())
	cmd.AddCommand(newWatchlistAddCmd())
	cmd.AddCommand(newWatchlistRemoveCmd())
	cmd.AddCommand(newWatchlistWatchCmd())

	return cmd
}

func newWatchlistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show watched products with current prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchlistList(cmd.Context())
		},
	}
}

func runWatchlistList(ctx context.Context, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/dashboard/watchlist"); err != nil {
		return err
	}

	items, err := a.client.Watchlist(ctx)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "Watchlist is empty.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tITEM\tMARKET\tPRICE")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", item.ID, item.ItemName, item.MarketName, item.PricePerUnit)
	}
	w.Flush()

	return nil
}

func newWatchlistAddCmd() *cobra.Command {
	var productID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the watchlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchlistAdd(cmd.Context(), productID)
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "Product ID (interactive selection if omitted)")

	return cmd
}

func runWatchlistAdd(ctx context.Context, productID string, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/dashboard/watchlist"); err != nil {
		return err
	}

	if productID == "" {
		productID, err = selectProduct(ctx, a)
		if err != nil {
			return err
		}
	}

	item, err := a.client.AddToWatchlist(ctx, productID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Watching %s at %s (entry %s)\n", item.ItemName, item.MarketName, item.ID)
	return nil
}

func newWatchlistRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <entry-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a watchlist entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchlistRemove(cmd.Context(), args[0])
		},
	}
}

func runWatchlistRemove(ctx context.Context, itemID string, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/dashboard/watchlist"); err != nil {
		return err
	}

	if err := a.client.RemoveFromWatchlist(ctx, itemID); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "✓ Removed from watchlist")
	return nil
}

func newWatchlistWatchCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll watched prices and alert on threshold breaches",
		Long: `Polls the watchlist on a schedule and logs price changes. Alert
thresholds and the polling schedule come from a yaml rules file:

  schedule: "@every 5m"
  rules:
    - item: Tomato
      max_price: 80
    - item: Onion
      min_price: 20

Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchlistWatch(cmd.Context(), rulesPath)
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "Path to yaml rules file")

	return cmd
}

func runWatchlistWatch(ctx context.Context, rulesPath string, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/dashboard/watchlist"); err != nil {
		return err
	}

	rules := &watch.Rules{Schedule: watch.DefaultSchedule}
	if rulesPath != "" {
		rules, err = watch.LoadRules(rulesPath)
		if err != nil {
			return err
		}
	}

	watcher := watch.New(a.client, rules, a.log)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	fmt.Fprintf(a.out, "Watching prices (schedule %s). Press Ctrl+C to stop.\n", rules.Schedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case <-ctx.Done():
	}

	fmt.Fprintln(a.out, "Stopping watcher...")
	return nil
}

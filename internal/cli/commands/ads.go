package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/api"
	"github.com/pricewatch-dev/pricewatch/internal/gate"
)

// NewAdsCmd creates the advertisements command group
func NewAdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ads",
		Short: "Browse and submit advertisements",
	}

	cmd.AddCommand(newAdsListCmd())
	cmd.AddCommand(newAdsAddCmd())

	return cmd
}

func newAdsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List advertisements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdsList(cmd.Context())
		},
	}
}

func runAdsList(ctx context.Context, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	ads, err := a.client.Advertisements(ctx)
	if err != nil {
		return err
	}

	if len(ads) == 0 {
		fmt.Fprintln(a.out, "No advertisements found.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tVENDOR\tSTATUS")
	for _, ad := range ads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ad.ID, ad.Title, ad.VendorEmail, ad.Status)
	}
	w.Flush()

	return nil
}

func newAdsAddCmd() *cobra.Command {
	var req api.AddAdvertisementRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit an advertisement (vendor only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdsAdd(cmd.Context(), req)
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Advertisement title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Advertisement text")
	cmd.Flags().StringVar(&req.ImageURL, "image", "", "Image URL")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func runAdsAdd(ctx context.Context, req api.AddAdvertisementRequest, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Vendor(), "/dashboard/advertisements"); err != nil {
		return err
	}

	ad, err := a.client.AddAdvertisement(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Advertisement submitted (id %s, status %s)\n", ad.ID, ad.Status)
	return nil
}

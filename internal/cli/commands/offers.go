package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/api"
	"github.com/pricewatch-dev/pricewatch/internal/gate"
)

// NewOffersCmd creates the offers command group
func NewOffersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offers",
		Short: "Browse and submit price offers",
	}

	cmd.AddCommand(newOffersListCmd())
	cmd.AddCommand(newOffersAddCmd())

	return cmd
}

func newOffersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOffersList(cmd.Context())
		},
	}
}

func runOffersList(ctx context.Context, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	offers, err := a.client.Offers(ctx)
	if err != nil {
		return err
	}

	if len(offers) == 0 {
		fmt.Fprintln(a.out, "No offers found.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tOFFER PRICE\tVENDOR\tSTATUS")
	for _, o := range offers {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
			o.ID, o.ProductID, o.OfferPrice, o.VendorEmail, o.Status)
	}
	w.Flush()

	return nil
}

func newOffersAddCmd() *cobra.Command {
	var productID string
	var price float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit an offer on a product (vendor only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOffersAdd(cmd.Context(), productID, price)
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "Product ID")
	cmd.Flags().Float64Var(&price, "price", 0, "Offer price per unit")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func runOffersAdd(ctx context.Context, productID string, price float64, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Vendor(), "/dashboard/offers"); err != nil {
		return err
	}

	offer, err := a.client.AddOffer(ctx, api.AddOfferRequest{
		ProductID:  productID,
		OfferPrice: price,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Offer submitted (id %s, status %s)\n", offer.ID, offer.Status)
	return nil
}

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/api"
	"github.com/pricewatch-dev/pricewatch/internal/gate"
)

// NewProductsCmd creates the products command group
func NewProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse and submit market price listings",
	}

	cmd.AddCommand(newProductsListCmd())
	cmd.AddCommand(newProductsAddCmd())

	return cmd
}

func newProductsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List today's price listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductsList(cmd.Context())
		},
	}
}

func runProductsList(ctx context.Context, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	products, err := a.client.Products(ctx)
	if err != nil {
		return err
	}

	if len(products) == 0 {
		fmt.Fprintln(a.out, "No listings found.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tITEM\tMARKET\tPRICE\tUNIT\tDATE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			p.ID, p.ItemName, p.MarketName, p.PricePerUnit, p.Unit, p.Date)
	}
	w.Flush()

	return nil
}

func newProductsAddCmd() *cobra.Command {
	var req api.AddProductRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a price listing (vendor only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductsAdd(cmd.Context(), req)
		},
	}

	cmd.Flags().StringVar(&req.ItemName, "item", "", "Item name")
	cmd.Flags().StringVar(&req.MarketName, "market", "", "Market name")
	cmd.Flags().StringVar(&req.Category, "category", "", "Item category")
	cmd.Flags().StringVar(&req.ImageURL, "image", "", "Image URL")
	cmd.Flags().Float64Var(&req.PricePerUnit, "price", 0, "Price per unit")
	cmd.Flags().StringVar(&req.Unit, "unit", "kg", "Unit of measure")
	cmd.Flags().StringVar(&req.Date, "date", "", "Observation date (defaults to today)")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("market")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func runProductsAdd(ctx context.Context, req api.AddProductRequest, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Vendor(), "/dashboard/product-create"); err != nil {
		return err
	}

	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	product, err := a.client.AddProduct(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Listing created: %s @ %.2f/%s in %s (id %s)\n",
		product.ItemName, product.PricePerUnit, product.Unit, product.MarketName, product.ID)
	return nil
}

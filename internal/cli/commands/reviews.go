package commands

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/api"
	"github.com/pricewatch-dev/pricewatch/internal/gate"
)

// NewReviewsCmd creates the reviews command group
func NewReviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Browse and write product reviews",
	}

	cmd.AddCommand(newReviewsListCmd())
	cmd.AddCommand(newReviewsAddCmd())

	return cmd
}

func newReviewsListCmd() *cobra.Command {
	var productID string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List reviews for a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviewsList(cmd.Context(), productID)
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "Product ID")
	_ = cmd.MarkFlagRequired("product")

	return cmd
}

func runReviewsList(ctx context.Context, productID string, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	reviews, err := a.client.Reviews(ctx, productID)
	if err != nil {
		return err
	}

	if len(reviews) == 0 {
		fmt.Fprintln(a.out, "No reviews yet.")
		return nil
	}

	for _, r := range reviews {
		name := r.UserName
		if name == "" {
			name = r.UserEmail
		}
		fmt.Fprintf(a.out, "%s rated %d/5", name, r.Rating)
		if r.Comment != "" {
			fmt.Fprintf(a.out, ": %s", r.Comment)
		}
		fmt.Fprintln(a.out)
	}

	return nil
}

func newReviewsAddCmd() *cobra.Command {
	var productID, comment string
	var rating int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Write a review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviewsAdd(cmd.Context(), productID, rating, comment)
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "Product ID (interactive selection if omitted)")
	cmd.Flags().IntVar(&rating, "rating", 0, "Rating from 1 to 5")
	cmd.Flags().StringVar(&comment, "comment", "", "Review text")
	_ = cmd.MarkFlagRequired("rating")

	return cmd
}

func runReviewsAdd(ctx context.Context, productID string, rating int, comment string, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/products"); err != nil {
		return err
	}

	if productID == "" {
		productID, err = selectProduct(ctx, a)
		if err != nil {
			return err
		}
	}

	review, err := a.client.AddReview(ctx, api.AddReviewRequest{
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Review posted (id %s)\n", review.ID)
	return nil
}

// selectProduct prompts the user to pick a product interactively
func selectProduct(ctx context.Context, a *app) (string, error) {
	products, err := a.client.Products(ctx)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return "", fmt.Errorf("no products available")
	}

	labels := make([]string, len(products))
	for i, p := range products {
		labels[i] = fmt.Sprintf("%s - %s (%.2f/%s)", p.ItemName, p.MarketName, p.PricePerUnit, p.Unit)
	}

	prompt := promptui.Select{
		Label: "Select a product",
		Items: labels,
		Size:  10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}

	return products[index].ID, nil
}

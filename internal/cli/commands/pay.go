package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricewatch-dev/pricewatch/internal/api"
	"github.com/pricewatch-dev/pricewatch/internal/gate"
)

// NewPayCmd creates the pay command
func NewPayCmd() *cobra.Command {
	var productID string
	var amount float64

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Pay for a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPay(cmd.Context(), productID, amount)
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "Product ID (interactive selection if omitted)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount to pay (defaults to the listing price)")

	return cmd
}

func runPay(ctx context.Context, productID string, amount float64, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/payment"); err != nil {
		return err
	}

	if productID == "" {
		productID, err = selectProduct(ctx, a)
		if err != nil {
			return err
		}
	}

	if amount <= 0 {
		product, err := a.client.Product(ctx, productID)
		if err != nil {
			return err
		}
		amount = product.PricePerUnit
	}

	intent, err := a.client.CreatePaymentIntent(ctx, amountInCents(amount))
	if err != nil {
		return fmt.Errorf("failed to open payment: %w", err)
	}

	payment, err := a.client.RecordPayment(ctx, api.RecordPaymentRequest{
		ProductID:     productID,
		Amount:        amount,
		TransactionID: transactionID(intent.ClientSecret),
	})
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Paid %.2f (transaction %s)\n", payment.Amount, payment.TransactionID)
	return nil
}

// amountInCents converts a price to the processor's smallest currency unit.
// Rounds instead of truncating: prices like 19.99 are not exact in binary
// floating point and plain truncation would charge one cent short.
func amountInCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// transactionID derives the payment intent ID from its client secret
func transactionID(clientSecret string) string {
	if id, _, ok := strings.Cut(clientSecret, "_secret_"); ok {
		return id
	}
	return clientSecret
}

// NewPaymentsCmd creates the payments history command
func NewPaymentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payments",
		Short: "Show payment history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayments(cmd.Context())
		},
	}
}

func runPayments(ctx context.Context, opts ...appOption) error {
	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}

	if err := a.authorize(ctx, gate.Private(), "/dashboard/payments"); err != nil {
		return err
	}

	payments, err := a.client.Payments(ctx)
	if err != nil {
		return err
	}

	if len(payments) == 0 {
		fmt.Fprintln(a.out, "No payments yet.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRANSACTION\tITEM\tAMOUNT\tDATE")
	for _, p := range payments {
		item := p.ItemName
		if item == "" {
			item = p.ProductID
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", p.TransactionID, item, p.Amount, p.CreatedAt)
	}
	w.Flush()

	return nil
}

// cmd/purchase/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/domain/purchase"
	"github.com/your-org/warehouse-backend/internal/infrastructure/client"
	"github.com/your-org/warehouse-backend/internal/pkg/logger"
)

const usage = `Usage: purchase [flags] <command> [args]

Commands:
  list                                 show the warehouse inventory
  buy <product_id>=<qty> ...           calculate a purchase and commit it
  calc <product_id>=<qty> ...          calculate a purchase without committing
  edit <product_id> [--quantity N] [--discount D]
                                       edit an inventory line

Flags:
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	fs := flag.NewFlagSet("purchase", flag.ExitOnError)
	baseURL := fs.String("base-url", cfg.Client.BaseURL, "inventory service API base URL")
	warehouse := fs.StringP("warehouse", "w", "", "warehouse id")
	quantity := fs.Int("quantity", -1, "edit: new on-hand quantity")
	discount := fs.String("discount", "", "edit: new discount percent")
	twoCall := fs.Bool("two-call", false, "edit: send quantity and discount as separate requests")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	warehouseID, err := uuid.Parse(*warehouse)
	if err != nil {
		fmt.Fprintln(os.Stderr, "--warehouse must be a warehouse id")
		os.Exit(2)
	}

	cfg.Client.BaseURL = *baseURL
	log := logger.New(cfg)
	backend := client.NewInventoryClient(cfg, log)
	snapshot := purchase.NewSnapshot(backend, warehouseID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "list":
		err = list(ctx, snapshot)
	case "calc", "buy":
		session := purchase.NewSession(backend, snapshot, log)
		defer session.Close()
		err = buy(ctx, session, args[1:], args[0] == "buy")
	case "edit":
		mode := purchase.EditModeAtomic
		if *twoCall {
			mode = purchase.EditModeTwoCall
		}
		editor := purchase.NewEditor(backend, snapshot, mode, log)
		err = edit(ctx, editor, args[1:], fs.Changed("quantity"), *quantity, *discount)
	default:
		fs.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

func list(ctx context.Context, snapshot *purchase.Snapshot) error {
	lines, err := snapshot.Refresh(ctx)
	if err != nil {
		return err
	}
	printLines(os.Stdout, lines)
	return nil
}

func buy(ctx context.Context, session *purchase.Session, items []string, commit bool) error {
	if len(items) == 0 {
		return errors.New("name at least one <product_id>=<qty>")
	}
	if err := session.Open(ctx); err != nil {
		return err
	}

	for _, item := range items {
		id, qty, ok := strings.Cut(item, "=")
		productID, err := uuid.Parse(id)
		if !ok || err != nil {
			return fmt.Errorf("malformed item %q", item)
		}
		if err := session.SetQuantityInput(productID, qty); err != nil {
			return err
		}
	}

	calc, err := session.Calculate(ctx)
	if err != nil {
		return err
	}
	if calc == nil {
		fmt.Println("Nothing to calculate")
		return nil
	}
	printCalculation(os.Stdout, calc)

	if !commit {
		return nil
	}

	receipt, err := session.Commit(ctx)
	if receipt != nil {
		fmt.Printf("\nPurchase %s: %s, total %s\n", receipt.PurchaseID, receipt.Status, receipt.TotalSum.StringFixed(inventory.CurrencyPlaces))
	}
	if errors.Is(err, purchase.ErrRefreshFailed) {
		fmt.Fprintln(os.Stderr, "warning:", err)
		return nil
	}
	return err
}

func edit(ctx context.Context, editor *purchase.Editor, args []string, hasQuantity bool, quantity int, discount string) error {
	if len(args) != 1 {
		return errors.New("edit takes exactly one product id")
	}
	productID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("malformed product id %q", args[0])
	}

	change := purchase.LineEdit{ProductID: productID}
	if hasQuantity {
		change.Quantity = &quantity
	}
	if discount != "" {
		d, err := decimal.NewFromString(discount)
		if err != nil {
			return fmt.Errorf("%w: discount %q is not a number", inventory.ErrValidation, discount)
		}
		change.Discount = &d
	}

	line, err := editor.Apply(ctx, change)
	if line != nil {
		printLines(os.Stdout, []inventory.InventoryLine{*line})
	}
	return err
}

// printLines shows inventory as the service returned it. Discounted prices
// come only from a calculation.
func printLines(out io.Writer, lines []inventory.InventoryLine) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT ID\tNAME\tQTY\tPRICE\tDISCOUNT")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s%%\n",
			l.ProductID, l.ProductName(), l.Quantity,
			l.Price.StringFixed(inventory.CurrencyPlaces),
			l.Discount.String())
	}
	_ = w.Flush()
}

func printCalculation(out io.Writer, calc *inventory.Calculation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tQTY\tPRICE\tDISCOUNTED\tTOTAL")
	for _, item := range calc.Items {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			item.Name, item.Quantity,
			item.Price.StringFixed(inventory.CurrencyPlaces),
			item.PriceWithDiscount.StringFixed(inventory.CurrencyPlaces),
			item.TotalPrice.StringFixed(inventory.CurrencyPlaces))
	}
	fmt.Fprintf(w, "\t\t\tSUM\t%s\n", calc.TotalSum.StringFixed(inventory.CurrencyPlaces))
	_ = w.Flush()
}

// describe turns an error into a message for the terminal
func describe(err error) string {
	var partial *purchase.PartialUpdateError
	switch {
	case errors.As(err, &partial):
		return fmt.Sprintf("edit partly applied (%s written, %s failed): %v",
			strings.Join(partial.Applied, ", "), partial.Failed, partial.Err)
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "Not enough stock: " + err.Error()
	case errors.Is(err, purchase.ErrTransport):
		return "Inventory service unreachable: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

// Package cli is the one-shot command dispatcher used by cmd/stockctl. It
// parses argv, calls the application facade, and prints plain-text replies.
// Richer front-ends (messaging, web) talk to the same facade.
package cli

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"stock-ledger/internal/app"
)

const usage = `Usage: stockctl COMMAND [args]

Catalog:
  product-add BRAND MODEL NAME WHOLESALE_PRICE
  products

Clients:
  client-add NAME
  clients

Stock:
  receive WAREHOUSE BRAND MODEL QTY
  move FROM TO BRAND MODEL QTY
  move-all FROM [TO]        (TO defaults to SHOP)
  stock [WAREHOUSE]

Cart & invoicing:
  cart-start CLIENT
  cart-add CLIENT BRAND MODEL QTY [wh|wh10|custom] [CUSTOM_PRICE]
  cart-remove CLIENT BRAND MODEL
  cart-show CLIENT
  cart-commit CLIENT WAREHOUSE

Debt:
  pay CLIENT AMOUNT
  debt CLIENT
  statement CLIENT`

// Run executes a single command and returns. args is os.Args[1:].
func Run(ctx context.Context, svc app.ApplicationService, decimals int32, args []string) {
	if len(args) == 0 {
		log.Fatal(usage)
	}

	switch args[0] {
	case "product-add":
		requireArgs(args, 5, "product-add BRAND MODEL NAME WHOLESALE_PRICE")
		price := parseDecimal(args[4], "wholesale price")
		result, err := svc.AddProduct(ctx, app.AddProductRequest{
			Brand: args[1], Model: args[2], Name: args[3], Wholesale: price,
		})
		fatalOn(err)
		fmt.Printf("Product %s %s saved: wholesale %s, wholesale+10%% %s\n",
			result.Product.Brand, result.Product.Model,
			result.Product.Wholesale.StringFixed(decimals),
			result.Wholesale10.StringFixed(decimals))

	case "products":
		result, err := svc.ListProducts(ctx)
		fatalOn(err)
		printProducts(result.Products, decimals)

	case "client-add":
		requireArgs(args, 2, "client-add NAME")
		result, err := svc.AddClient(ctx, strings.Join(args[1:], " "))
		fatalOn(err)
		fmt.Printf("Client saved: %s\n", result.Client.Name)

	case "clients":
		result, err := svc.ListClients(ctx)
		fatalOn(err)
		for _, c := range result.Clients {
			fmt.Println(c.Name)
		}

	case "receive":
		requireArgs(args, 5, "receive WAREHOUSE BRAND MODEL QTY")
		err := svc.ReceiveStock(ctx, app.ReceiveStockRequest{
			Warehouse: args[1], Brand: args[2], Model: args[3],
			Qty: parseDecimal(args[4], "qty"),
		})
		fatalOn(err)
		fmt.Println("ok")

	case "move":
		requireArgs(args, 6, "move FROM TO BRAND MODEL QTY")
		err := svc.MoveStock(ctx, app.MoveStockRequest{
			From: args[1], To: args[2], Brand: args[3], Model: args[4],
			Qty: parseDecimal(args[5], "qty"),
		})
		fatalOn(err)
		fmt.Println("ok")

	case "move-all":
		requireArgs(args, 2, "move-all FROM [TO]")
		to := "SHOP"
		if len(args) > 2 {
			to = args[2]
		}
		result, err := svc.MoveAllStock(ctx, app.MoveAllStockRequest{From: args[1], To: to})
		if result != nil && result.Moved > 0 && err != nil {
			fmt.Printf("moved %d product lines before failure\n", result.Moved)
		}
		fatalOn(err)
		fmt.Printf("moved %d product lines\n", result.Moved)

	case "stock":
		var warehouse *string
		if len(args) > 1 {
			warehouse = &args[1]
		}
		result, err := svc.ListStock(ctx, warehouse)
		fatalOn(err)
		printStock(result.Rows, decimals)

	case "cart-start":
		requireArgs(args, 2, "cart-start CLIENT")
		result, err := svc.CartStart(ctx, args[1])
		fatalOn(err)
		fmt.Printf("Cart started for %s\n", result.Cart.ClientName)

	case "cart-add":
		requireArgs(args, 5, "cart-add CLIENT BRAND MODEL QTY [wh|wh10|custom] [CUSTOM_PRICE]")
		req := app.CartAddItemRequest{
			Client: args[1], Brand: args[2], Model: args[3],
			Qty: parseDecimal(args[4], "qty"), PriceMode: "wh",
		}
		if len(args) > 5 {
			req.PriceMode = args[5]
		}
		if len(args) > 6 {
			p := parseDecimal(args[6], "custom price")
			req.CustomPrice = &p
		}
		result, err := svc.CartAddItem(ctx, req)
		fatalOn(err)
		printCart(result.Cart, decimals)

	case "cart-remove":
		requireArgs(args, 4, "cart-remove CLIENT BRAND MODEL")
		result, err := svc.CartRemoveItem(ctx, app.CartRemoveItemRequest{
			Client: args[1], Brand: args[2], Model: args[3],
		})
		fatalOn(err)
		printCart(result.Cart, decimals)

	case "cart-show":
		requireArgs(args, 2, "cart-show CLIENT")
		result, err := svc.CartShow(ctx, args[1])
		fatalOn(err)
		printCart(result.Cart, decimals)

	case "cart-commit":
		requireArgs(args, 3, "cart-commit CLIENT WAREHOUSE")
		result, err := svc.CommitCart(ctx, app.CommitCartRequest{Client: args[1], Warehouse: args[2]})
		fatalOn(err)
		printInvoice(result.Invoice, decimals)
		if result.RenderedPath != "" {
			fmt.Printf("Rendered: %s\n", result.RenderedPath)
		}

	case "pay":
		requireArgs(args, 3, "pay CLIENT AMOUNT")
		result, err := svc.RecordPayment(ctx, app.RecordPaymentRequest{
			Client: args[1], Amount: parseDecimal(args[2], "amount"),
		})
		fatalOn(err)
		fmt.Printf("Payment recorded. %s now owes %s %s\n",
			result.Client, result.Debt.StringFixed(decimals), result.Currency)

	case "debt":
		requireArgs(args, 2, "debt CLIENT")
		result, err := svc.GetDebt(ctx, args[1])
		fatalOn(err)
		fmt.Printf("%s owes %s %s\n", result.Client, result.Debt.StringFixed(decimals), result.Currency)

	case "statement":
		requireArgs(args, 2, "statement CLIENT")
		result, err := svc.ClientStatement(ctx, args[1])
		fatalOn(err)
		printStatement(result, decimals)

	default:
		log.Fatalf("Unknown command: %s\n%s", args[0], usage)
	}
}

func requireArgs(args []string, n int, usageLine string) {
	if len(args) < n {
		log.Fatalf("Usage: stockctl %s", usageLine)
	}
}

func parseDecimal(s, name string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("Invalid %s: %q", name, s)
	}
	return d
}

func fatalOn(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

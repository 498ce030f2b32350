/*
main.go - Demo entry point

PURPOSE:
  Runs a representative day of business through the posting coordinator and
  prints the resulting journal and stock valuation. Useful for smoke-testing
  a configured store backend.

STARTUP SEQUENCE:
  1. Load configuration (defaults, optional config file, environment)
  2. Open the configured store (memory, sqlite, or postgres)
  3. Run the demo business flows
  4. Print journal and warehouse summary

CONFIGURATION:
  STORE_DRIVER   memory | sqlite | postgres (default: memory)
  SQLITE_PATH    database file for the sqlite driver (default: books.db)
  POSTGRES_URL   connection string for the postgres driver
  LOG_LEVEL      debug | info | warn | error (default: info)
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/warp/bookkeeping-engine/book"
	memstore "github.com/warp/bookkeeping-engine/book/store"
	"github.com/warp/bookkeeping-engine/config"
	"github.com/warp/bookkeeping-engine/logging"
	"github.com/warp/bookkeeping-engine/store/postgres"
	"github.com/warp/bookkeeping-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level)
	ctx := context.Background()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("store ready", "driver", cfg.Store.Driver)

	coordinator := book.NewPostingCoordinator(st)
	if err := runDemo(ctx, coordinator, logger); err != nil {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}

	printJournal(ctx, coordinator)
	printWarehouse(ctx, coordinator, "W1")
}

func openStore(ctx context.Context, cfg *config.Config) (book.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		st, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	case config.DriverPostgres:
		st, err := postgres.New(ctx, cfg.Store.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	default:
		return memstore.NewTxMemory(), func() {}, nil
	}
}

// runDemo posts one of each business event type.
func runDemo(ctx context.Context, c *book.PostingCoordinator, logger *slog.Logger) error {
	const (
		product   = book.ProductID("P1")
		warehouse = book.WarehouseID("W1")
	)

	if _, err := c.PostOpening(ctx, "OPN-1", decimal.NewFromInt(50000), book.AccountCash, "Initial cash balance"); err != nil {
		return err
	}

	if _, err := c.PostReceipt(ctx, product, warehouse, 10, decimal.NewFromInt(100), book.ReceiptArgs{
		ReceiptNo:     "GRN-1",
		CreditAccount: book.AccountBankPOS,
		WarehouseName: "Main warehouse",
	}); err != nil {
		return err
	}
	logger.Info("received stock", "product", product, "warehouse", warehouse, "qty", 10)

	if _, err := c.PostSale(ctx, "INV-1", decimal.NewFromInt(5000), "C1", "Acme", ""); err != nil {
		return err
	}
	if _, err := c.PostCashReceipt(ctx, "RCP-1", decimal.NewFromInt(5000), book.PayCash, "C1", "Acme", "invoice INV-1"); err != nil {
		return err
	}

	if _, err := c.PostIssue(ctx, product, warehouse, 4, book.IssueArgs{
		IssueNo:       "ISS-1",
		DebitAccount:  "Cost of Goods Sold",
		WarehouseName: "Main warehouse",
		Reason:        "sold to Acme",
	}); err != nil {
		return err
	}
	logger.Info("issued stock", "product", product, "warehouse", warehouse, "qty", 4)

	// Stocktake found 5 on the shelf instead of the recorded 6.
	entry, err := c.PostAdjustment(ctx, product, warehouse, 5, book.StocktakeArgs{
		AdjustmentNo:  "ADJ-1",
		WarehouseName: "Main warehouse",
		Reason:        "physical count",
	})
	if err != nil {
		return err
	}
	if entry != nil {
		logger.Info("stocktake variance posted", "amount", entry.Amount.String(), "entry", entry.ID)
	}
	return nil
}

func printJournal(ctx context.Context, c *book.PostingCoordinator) {
	entries, err := c.Journal().List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list journal: %v\n", err)
		return
	}
	fmt.Println("\nJournal:")
	for _, e := range entries {
		fmt.Printf("  %-12s %-22s -> %-34s %10s  %s\n",
			e.Reference, e.DebitAccount, e.CreditAccount, e.Amount.String(), e.Operation)
	}
}

func printWarehouse(ctx context.Context, c *book.PostingCoordinator, warehouse book.WarehouseID) {
	records, err := c.Inventory().WarehouseProducts(ctx, warehouse)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warehouse stock: %v\n", err)
		return
	}
	fmt.Printf("\nWarehouse %s:\n", warehouse)
	for _, r := range records {
		fmt.Printf("  %-8s qty %4d @ %s = %s\n",
			r.Product, r.Quantity, r.UnitCost.String(), r.Value().String())
	}
}

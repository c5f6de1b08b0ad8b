package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/stagefront/concession_backend/config"
	"github.com/stagefront/concession_backend/storage/mysql"
	"github.com/stagefront/concession_backend/workflow"
)

func main() {
	tenantID := flag.String("tenant-id", "", "Required: tenant id (uuid)")
	productID := flag.Int("product-id", 0, "Optional: rebuild a single product; default rebuilds every product of the tenant")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing products and continue rebuilding others")
	flag.Parse()

	if strings.TrimSpace(*tenantID) == "" {
		fmt.Fprintln(os.Stderr, "--tenant-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	store := mysql.NewStore(db)
	locker := workflow.NewLedgerLocker(config.GetRedisLock())
	recalc := workflow.NewBalanceRecalculator(workflow.NewMonthRolloverResolver(), nil)
	ctx := context.Background()

	var products []int
	if *productID > 0 {
		products = []int{*productID}
	} else {
		var err error
		products, err = store.ListLedgerProducts(ctx, *tenantID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "discover products: %v\n", err)
			os.Exit(1)
		}
	}

	for _, pid := range products {
		fmt.Printf("Rebuilding tenant=%s product=%d\n", *tenantID, pid)
		warnings, err := workflow.RebuildLedgerChain(ctx, store, locker, recalc, *tenantID, pid)
		if err != nil {
			if *continueOnError {
				fmt.Fprintf(os.Stderr, "rebuild failed (skipping): %v\n", err)
				continue
			}
			fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
			os.Exit(1)
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w.String())
		}
	}

	fmt.Println("ledger rebuild complete")
}

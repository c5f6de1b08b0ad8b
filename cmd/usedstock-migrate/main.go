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
	dryRun := flag.Bool("dry-run", false, "Count what would move and roll everything back")
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

	migration := workflow.NewLegacySalesMigration(store, locker, recalc, nil)
	migration.DryRun = *dryRun

	ctx := context.Background()
	moved, err := migration.Run(ctx, *tenantID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("dry run: %d entries would migrate usedStock -> sales\n", moved)
		return
	}
	fmt.Printf("migrated %d entries usedStock -> sales\n", moved)
}

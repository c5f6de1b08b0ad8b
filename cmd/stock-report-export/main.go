package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stagefront/concession_backend/config"
	"github.com/stagefront/concession_backend/models/reports"
	"github.com/stagefront/concession_backend/storage/mysql"
)

func main() {
	tenantID := flag.String("tenant-id", "", "Required: tenant id (uuid)")
	year := flag.Int("year", 0, "Required: report year")
	month := flag.Int("month", 0, "Required: report month (1-12)")
	out := flag.String("out", "", "Optional: output path; defaults to Stock_Report_<today>.xlsx")
	flag.Parse()

	if strings.TrimSpace(*tenantID) == "" {
		fmt.Fprintln(os.Stderr, "--tenant-id is required")
		os.Exit(1)
	}
	if *year <= 0 || *month < 1 || *month > 12 {
		fmt.Fprintln(os.Stderr, "--year and --month (1-12) are required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	aggregator := reports.NewAggregator(mysql.NewStore(db), mysql.NewRegistry(db))

	ctx := context.Background()
	report, err := aggregator.MonthlyReport(ctx, *tenantID, *year, *month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build report: %v\n", err)
		os.Exit(1)
	}

	filename := strings.TrimSpace(*out)
	if filename == "" {
		filename = reports.ReportFilename(time.Now().UTC())
	}
	if err := reports.ExportMonthlyReport(report, filename); err != nil {
		fmt.Fprintf(os.Stderr, "export report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d products)\n", filename, len(report.Products))
}

package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage"
	"github.com/stagefront/concession_backend/utils"
)

// Aggregator produces read-only snapshots and reports from the ledger store.
// Reads never fail on absent data: a ledger that has never been written to is
// a valid, empty state.
type Aggregator struct {
	store    storage.LedgerStore
	registry models.Registry
}

func NewAggregator(store storage.LedgerStore, registry models.Registry) *Aggregator {
	return &Aggregator{store: store, registry: registry}
}

// DailySnapshot is a day's view of one product. Recorded distinguishes "no
// entry recorded" (zero movements carrying the prevailing balance forward)
// from "entry recorded with zero movement".
type DailySnapshot struct {
	models.DailyEntry
	Recorded bool `json:"recorded"`
}

func (a *Aggregator) DailySnapshot(ctx context.Context, tenantId string, productId int, date time.Time) (*DailySnapshot, error) {
	date = utils.ConvertToDate(date)

	var prevailing decimal.Decimal
	havePrevailing := false

	ledger, err := a.store.GetLedger(ctx, tenantId, productId, date.Year(), int(date.Month()))
	if err != nil {
		return nil, fmt.Errorf("daily snapshot: %w", err)
	}
	if ledger != nil {
		entries, err := a.store.ListEntries(ctx, ledger.ID)
		if err != nil {
			return nil, fmt.Errorf("daily snapshot: %w", err)
		}
		for _, e := range entries {
			if e.EntryDate.Equal(date) {
				return &DailySnapshot{DailyEntry: *e, Recorded: true}, nil
			}
			if e.EntryDate.Before(date) {
				prevailing = e.Balance
				havePrevailing = true
			}
		}
	}
	if !havePrevailing {
		prev, err := a.store.PreviousLedger(ctx, tenantId, productId, date.Year(), int(date.Month()))
		if err != nil {
			return nil, fmt.Errorf("daily snapshot: %w", err)
		}
		if prev != nil {
			prevailing = prev.ClosingBalance
		}
	}

	return &DailySnapshot{
		DailyEntry: models.DailyEntry{
			TenantId:     tenantId,
			ProductId:    productId,
			EntryDate:    date,
			CarryForward: prevailing,
			Balance:      prevailing,
		},
		Recorded: false,
	}, nil
}

// ReportTotals are the summed movement columns plus the closing balance.
type ReportTotals struct {
	StockAdded      decimal.Decimal `json:"stock_added"`
	ExpiredOldStock decimal.Decimal `json:"expired_old_stock"`
	Sales           decimal.Decimal `json:"sales"`
	ExpiredStock    decimal.Decimal `json:"expired_stock"`
	DamageStock     decimal.Decimal `json:"damage_stock"`
	ClosingBalance  decimal.Decimal `json:"closing_balance"`
}

func (t *ReportTotals) add(other ReportTotals) {
	t.StockAdded = t.StockAdded.Add(other.StockAdded)
	t.ExpiredOldStock = t.ExpiredOldStock.Add(other.ExpiredOldStock)
	t.Sales = t.Sales.Add(other.Sales)
	t.ExpiredStock = t.ExpiredStock.Add(other.ExpiredStock)
	t.DamageStock = t.DamageStock.Add(other.DamageStock)
	t.ClosingBalance = t.ClosingBalance.Add(other.ClosingBalance)
}

// ProductReport is one product's entries for the month plus column totals.
type ProductReport struct {
	ProductId   int                  `json:"product_id"`
	ProductName string               `json:"product_name"`
	Entries     []*models.DailyEntry `json:"entries"`
	Totals      ReportTotals         `json:"totals"`
}

// MonthlyReport feeds the spreadsheet export and the admin report screen.
type MonthlyReport struct {
	TenantId   string           `json:"tenant_id"`
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Products   []*ProductReport `json:"products"`
	GrandTotal ReportTotals     `json:"grand_total"`
}

func (a *Aggregator) MonthlyReport(ctx context.Context, tenantId string, year, month int) (*MonthlyReport, error) {
	ledgers, err := a.store.ListLedgersByMonth(ctx, tenantId, year, month)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}

	report := &MonthlyReport{TenantId: tenantId, Year: year, Month: month}

	productIds := make([]int, 0, len(ledgers))
	for _, l := range ledgers {
		productIds = append(productIds, l.ProductId)
	}
	names, err := a.registry.ProductNames(ctx, tenantId, productIds)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}

	for _, ledger := range ledgers {
		entries, err := a.store.ListEntries(ctx, ledger.ID)
		if err != nil {
			return nil, fmt.Errorf("monthly report: %w", err)
		}
		name := names[ledger.ProductId]
		if name == "" {
			name = fmt.Sprintf("#%d", ledger.ProductId)
		}
		product := &ProductReport{
			ProductId:   ledger.ProductId,
			ProductName: name,
			Entries:     entries,
			Totals: ReportTotals{
				StockAdded:      ledger.TotalStockAdded,
				ExpiredOldStock: ledger.TotalExpiredOldStock,
				Sales:           ledger.TotalSales,
				ExpiredStock:    ledger.TotalExpiredStock,
				DamageStock:     ledger.TotalDamageStock,
				ClosingBalance:  ledger.ClosingBalance,
			},
		}
		report.Products = append(report.Products, product)
		report.GrandTotal.add(product.Totals)
	}

	return report, nil
}

// AvailableDates returns every recorded entry date for a tenant/product,
// ascending; drives the UI date picker.
func (a *Aggregator) AvailableDates(ctx context.Context, tenantId string, productId int) ([]time.Time, error) {
	return a.store.ListAvailableDates(ctx, tenantId, productId)
}

// AvailableMonths returns the months that have a ledger for a tenant/product,
// ascending; drives the UI month picker.
func (a *Aggregator) AvailableMonths(ctx context.Context, tenantId string, productId int) ([]storage.MonthKey, error) {
	ledgers, err := a.store.ListLedgers(ctx, tenantId, productId)
	if err != nil {
		return nil, fmt.Errorf("available months: %w", err)
	}
	months := make([]storage.MonthKey, 0, len(ledgers))
	for _, l := range ledgers {
		months = append(months, storage.MonthKey{Year: l.Year, Month: l.Month})
	}
	return months, nil
}

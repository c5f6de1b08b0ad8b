package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyLedger is the per-(tenant, product, year, month) record of daily stock
// movements. Created lazily on the first movement for its month; never deleted,
// only amended. The totals and closing balance are cached aggregates, rebuilt
// whenever the entry set changes.
type MonthlyLedger struct {
	ID        int    `gorm:"primaryKey" json:"id"`
	TenantId  string `gorm:"size:36;uniqueIndex:idx_ledger_key,priority:1;not null" json:"tenant_id"`
	ProductId int    `gorm:"uniqueIndex:idx_ledger_key,priority:2;not null" json:"product_id"`
	Year      int    `gorm:"uniqueIndex:idx_ledger_key,priority:3;not null" json:"year"`
	Month     int    `gorm:"uniqueIndex:idx_ledger_key,priority:4;not null" json:"month"` // 1..12

	// OpeningCarryIn is the carry-forward of the ledger's first entry,
	// inherited from the most recent prior month's closing balance.
	OpeningCarryIn decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_carry_in"`

	TotalStockAdded      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_stock_added"`
	TotalExpiredOldStock decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_expired_old_stock"`
	TotalSales           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_sales"`
	TotalExpiredStock    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_expired_stock"`
	TotalDamageStock     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_damage_stock"`

	// ClosingBalance is the balance of the last entry (or OpeningCarryIn when
	// the ledger has no entries). It seeds the next month's carry-in.
	ClosingBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"closing_balance"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DailyEntry records one day's stock movements inside a ledger. At most one
// entry per date per ledger; corrections overwrite the same date.
type DailyEntry struct {
	ID        string    `gorm:"size:36;primaryKey" json:"id"` // uuid
	LedgerId  int       `gorm:"uniqueIndex:idx_entry_day,priority:1;not null" json:"ledger_id"`
	TenantId  string    `gorm:"size:36;index:idx_entry_tenant_product,priority:1;not null" json:"tenant_id"`
	ProductId int       `gorm:"index:idx_entry_tenant_product,priority:2;not null" json:"product_id"`
	EntryDate time.Time `gorm:"uniqueIndex:idx_entry_day,priority:2;not null" json:"entry_date"` // day precision, UTC

	StockAdded      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"stock_added"`
	ExpiredOldStock decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"expired_old_stock"` // write-off of carried-in stock
	Sales           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"sales"`
	ExpiredStock    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"expired_stock"`
	DamageStock     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"damage_stock"`

	// UsedStock is the legacy name for Sales. Populated only on rows written
	// before the rename; the usedstock migration moves it into Sales and
	// clears it.
	UsedStock *decimal.Decimal `gorm:"type:decimal(20,4)" json:"used_stock,omitempty"`

	// Derived fields, maintained by the recompute engine.
	CarryForward    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"carry_forward"`
	Balance         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"balance"`
	NegativeBalance bool            `gorm:"not null;default:0" json:"negative_balance"`

	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NetMovement is the entry's net effect on the running balance:
// stockAdded − expiredOldStock − sales − expiredStock − damageStock.
func (e *DailyEntry) NetMovement() decimal.Decimal {
	return e.StockAdded.
		Sub(e.ExpiredOldStock).
		Sub(e.Sales).
		Sub(e.ExpiredStock).
		Sub(e.DamageStock)
}

// Settle derives CarryForward and Balance from the given opening balance and
// flags the entry when the balance goes negative.
func (e *DailyEntry) Settle(carryForward decimal.Decimal) {
	e.CarryForward = carryForward
	e.Balance = carryForward.Add(e.NetMovement())
	e.NegativeBalance = e.Balance.IsNegative()
}

// RefreshAggregates rebuilds the cached totals from the full, settled entry
// set. Entries must be in ascending date order.
func (l *MonthlyLedger) RefreshAggregates(entries []*DailyEntry) {
	l.TotalStockAdded = decimal.Zero
	l.TotalExpiredOldStock = decimal.Zero
	l.TotalSales = decimal.Zero
	l.TotalExpiredStock = decimal.Zero
	l.TotalDamageStock = decimal.Zero

	if len(entries) == 0 {
		l.ClosingBalance = l.OpeningCarryIn
		return
	}

	for _, e := range entries {
		l.TotalStockAdded = l.TotalStockAdded.Add(e.StockAdded)
		l.TotalExpiredOldStock = l.TotalExpiredOldStock.Add(e.ExpiredOldStock)
		l.TotalSales = l.TotalSales.Add(e.Sales)
		l.TotalExpiredStock = l.TotalExpiredStock.Add(e.ExpiredStock)
		l.TotalDamageStock = l.TotalDamageStock.Add(e.DamageStock)
	}
	l.OpeningCarryIn = entries[0].CarryForward
	l.ClosingBalance = entries[len(entries)-1].Balance
}

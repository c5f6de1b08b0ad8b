package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage"
)

// BalanceRecalculator re-derives the carry-forward chain of a ledger from a
// given date forward, cascading across month boundaries when the closing
// balance moves. Corrections are rare relative to reads, so a full forward
// recompute on write keeps reads trivial.
type BalanceRecalculator struct {
	rollover *MonthRolloverResolver
	logger   *logrus.Logger
}

func NewBalanceRecalculator(rollover *MonthRolloverResolver, logger *logrus.Logger) *BalanceRecalculator {
	return &BalanceRecalculator{rollover: rollover, logger: logger}
}

// Recompute settles the entry at fromDate and every later entry of the ledger,
// refreshes the cached aggregates, and recursively recomputes subsequent
// ledgers while their stored carry-in disagrees with the new closing balance.
// A zero fromDate recomputes the whole ledger. Must run inside the caller's
// store transaction.
func (c *BalanceRecalculator) Recompute(ctx context.Context, st storage.LedgerStore, ledger *models.MonthlyLedger, fromDate time.Time) ([]models.ConsistencyWarning, error) {
	entries, err := st.ListEntries(ctx, ledger.ID)
	if err != nil {
		return nil, fmt.Errorf("recompute ledger %d: %w", ledger.ID, err)
	}

	idx := 0
	for idx < len(entries) && entries[idx].EntryDate.Before(fromDate) {
		idx++
	}

	var carry decimal.Decimal
	if idx == 0 {
		carry, err = c.rollover.OpeningCarryIn(ctx, st, ledger.TenantId, ledger.ProductId, ledger.Year, ledger.Month)
		if err != nil {
			return nil, err
		}
		ledger.OpeningCarryIn = carry
	} else {
		carry = entries[idx-1].Balance
	}

	var warnings []models.ConsistencyWarning
	for i := idx; i < len(entries); i++ {
		e := entries[i]
		e.Settle(carry)
		if e.NegativeBalance {
			warnings = append(warnings, models.ConsistencyWarning{
				TenantId:  e.TenantId,
				ProductId: e.ProductId,
				EntryDate: e.EntryDate,
				Balance:   e.Balance,
			})
		}
		carry = e.Balance
	}

	if err := st.SaveEntries(ctx, entries[idx:]); err != nil {
		return nil, fmt.Errorf("recompute ledger %d: %w", ledger.ID, err)
	}

	ledger.RefreshAggregates(entries)
	if err := st.SaveLedger(ctx, ledger); err != nil {
		return nil, fmt.Errorf("recompute ledger %d: %w", ledger.ID, err)
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"tenant_id":  ledger.TenantId,
			"product_id": ledger.ProductId,
			"year":       ledger.Year,
			"month":      ledger.Month,
			"from":       fromDate.Format("2006-01-02"),
			"recomputed": len(entries) - idx,
			"closing":    ledger.ClosingBalance.String(),
		}).Debug("stockledger.recompute")
	}

	// The resolver is a no-op when the next ledger's stored carry-in already
	// matches, so the cascade terminates at the first settled month.
	next, err := c.rollover.OnMonthBalanceChanged(ctx, st, ledger.TenantId, ledger.ProductId, ledger.Year, ledger.Month, ledger.ClosingBalance)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return warnings, nil
	}
	nextWarnings, err := c.Recompute(ctx, st, next, time.Time{})
	if err != nil {
		return nil, err
	}
	return append(warnings, nextWarnings...), nil
}

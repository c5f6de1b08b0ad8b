package workflow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage"
)

// MonthRolloverResolver links a month's opening carry-in to the previous
// month's closing balance. Ledgers are created lazily, so the "previous month"
// is the most recent ledger before (year, month), not necessarily the adjacent
// calendar month.
type MonthRolloverResolver struct{}

func NewMonthRolloverResolver() *MonthRolloverResolver {
	return &MonthRolloverResolver{}
}

// OpeningCarryIn returns the closing balance of the most recent prior ledger,
// or zero when the product has no earlier ledger at all.
func (r *MonthRolloverResolver) OpeningCarryIn(ctx context.Context, st storage.LedgerStore, tenantId string, productId, year, month int) (decimal.Decimal, error) {
	prev, err := st.PreviousLedger(ctx, tenantId, productId, year, month)
	if err != nil {
		return decimal.Zero, fmt.Errorf("opening carry-in: %w", err)
	}
	if prev == nil {
		return decimal.Zero, nil
	}
	return prev.ClosingBalance, nil
}

// OnMonthBalanceChanged propagates a closing balance into the next existing
// ledger: its cached carry-in is updated and the ledger is returned so the
// caller can recompute it from its first entry. Returns nil when no later
// ledger exists yet (that ledger will fetch the correct carry-in lazily when
// first created) or when the next ledger's stored carry-in already matches.
// Comparing against the stored carry-in, not the previous closing, matters:
// a freshly created ledger has no trustworthy prior closing to compare with.
func (r *MonthRolloverResolver) OnMonthBalanceChanged(ctx context.Context, st storage.LedgerStore, tenantId string, productId, year, month int, newClosingBalance decimal.Decimal) (*models.MonthlyLedger, error) {
	next, err := st.NextLedger(ctx, tenantId, productId, year, month)
	if err != nil {
		return nil, fmt.Errorf("month balance changed: %w", err)
	}
	if next == nil {
		return nil, nil
	}
	if next.OpeningCarryIn.Equal(newClosingBalance) {
		return nil, nil
	}
	next.OpeningCarryIn = newClosingBalance
	if err := st.SaveLedger(ctx, next); err != nil {
		return nil, fmt.Errorf("month balance changed: %w", err)
	}
	return next, nil
}

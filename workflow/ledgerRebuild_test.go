package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagefront/concession_backend/models"
)

func TestRebuildLedgerChainRepairsLaterCorruption(t *testing.T) {
	r, store := newTestRecorder(t)
	ctx := context.Background()

	// Healthy November written through the normal path.
	in := testMovement("2025-11-01")
	in.StockAdded = qty("100")
	mustRecord(t, r, in)

	// December written behind the engine's back with a bogus carry chain, the
	// way legacy ad hoc scripts used to leave it.
	dec := &models.MonthlyLedger{
		TenantId:       testTenant,
		ProductId:      testProduct,
		Year:           2025,
		Month:          12,
		OpeningCarryIn: decimal.NewFromInt(999),
		ClosingBalance: decimal.NewFromInt(979),
	}
	if err := store.CreateLedger(ctx, dec); err != nil {
		t.Fatalf("CreateLedger: %v", err)
	}
	entry := &models.DailyEntry{
		ID:           uuid.NewString(),
		LedgerId:     dec.ID,
		TenantId:     testTenant,
		ProductId:    testProduct,
		EntryDate:    time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC),
		Sales:        decimal.NewFromInt(20),
		CarryForward: decimal.NewFromInt(999),
		Balance:      decimal.NewFromInt(979),
	}
	if err := store.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	logger := newTestLogger()
	recalc := NewBalanceRecalculator(NewMonthRolloverResolver(), logger)
	warnings, err := RebuildLedgerChain(ctx, store, nil, recalc, testTenant, testProduct)
	if err != nil {
		t.Fatalf("RebuildLedgerChain: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	rebuilt := ledgerFor(t, store, testProduct, 2025, 12)
	if rebuilt.OpeningCarryIn.String() != "100" || rebuilt.ClosingBalance.String() != "80" {
		t.Fatalf("December not repaired: opening=%s closing=%s",
			rebuilt.OpeningCarryIn.String(), rebuilt.ClosingBalance.String())
	}
	entries := entriesFor(t, store, rebuilt.ID)
	if entries[0].CarryForward.String() != "100" || entries[0].Balance.String() != "80" {
		t.Fatalf("December entry not repaired: carry=%s balance=%s",
			entries[0].CarryForward.String(), entries[0].Balance.String())
	}
}

func TestRebuildLedgerChainDeduplicatesWarnings(t *testing.T) {
	r, store := newTestRecorder(t)
	ctx := context.Background()

	// November oversells; December exists, so the November recompute cascades
	// into it and the explicit walk then revisits it.
	in := testMovement("2025-11-01")
	in.Sales = qty("30")
	mustRecord(t, r, in)
	in = testMovement("2025-12-01")
	in.StockAdded = qty("5")
	mustRecord(t, r, in)

	logger := newTestLogger()
	recalc := NewBalanceRecalculator(NewMonthRolloverResolver(), logger)
	warnings, err := RebuildLedgerChain(ctx, store, nil, recalc, testTenant, testProduct)
	if err != nil {
		t.Fatalf("RebuildLedgerChain: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected one warning per negative day, got %d: %v", len(warnings), warnings)
	}
	if warnings[0].Balance.String() != "-30" || warnings[1].Balance.String() != "-25" {
		t.Fatalf("unexpected warning balances: %v", warnings)
	}
}

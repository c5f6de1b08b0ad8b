package workflow

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage/memory"
)

const (
	testTenant  = "11111111-2222-3333-4444-555555555555"
	testProduct = 7
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRecorder(t *testing.T) (*EntryRecorder, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	registry := memory.NewRegistry()
	registry.AddTenant(testTenant, "Grand Odeon")
	registry.AddProduct(testTenant, testProduct, "Popcorn Large")
	registry.AddProduct(testTenant, 8, "Nachos")
	logger := newTestLogger()
	recalc := NewBalanceRecalculator(NewMonthRolloverResolver(), logger)
	return NewEntryRecorder(store, registry, nil, recalc, logger), store
}

func qty(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func testMovement(date string) *MovementInput {
	return &MovementInput{
		TenantId:        testTenant,
		ProductId:       testProduct,
		Date:            date,
		StockAdded:      qty("0"),
		ExpiredOldStock: qty("0"),
		Sales:           qty("0"),
		ExpiredStock:    qty("0"),
		DamageStock:     qty("0"),
	}
}

func mustRecord(t *testing.T, r *EntryRecorder, in *MovementInput) *MovementResult {
	t.Helper()
	res, err := r.RecordMovement(context.Background(), in)
	if err != nil {
		t.Fatalf("RecordMovement(%s) error: %v", in.Date, err)
	}
	return res
}

func ledgerFor(t *testing.T, store *memory.Store, productId, year, month int) *models.MonthlyLedger {
	t.Helper()
	l, err := store.GetLedger(context.Background(), testTenant, productId, year, month)
	if err != nil {
		t.Fatalf("GetLedger: %v", err)
	}
	if l == nil {
		t.Fatalf("ledger %d-%02d missing for product %d", year, month, productId)
	}
	return l
}

func entriesFor(t *testing.T, store *memory.Store, ledgerId int) []*models.DailyEntry {
	t.Helper()
	entries, err := store.ListEntries(context.Background(), ledgerId)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	return entries
}

func TestFirstMovementStartsFromZero(t *testing.T) {
	r, store := newTestRecorder(t)

	in := testMovement("2025-11-01")
	in.StockAdded = qty("100")
	res := mustRecord(t, r, in)

	if res.Entry.CarryForward.String() != "0" {
		t.Fatalf("expected carry forward 0, got %s", res.Entry.CarryForward.String())
	}
	if res.Entry.Balance.String() != "100" {
		t.Fatalf("expected balance 100, got %s", res.Entry.Balance.String())
	}
	if res.CorrelationId == "" {
		t.Fatalf("expected a correlation id")
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}

	l := ledgerFor(t, store, testProduct, 2025, 11)
	if l.OpeningCarryIn.String() != "0" || l.ClosingBalance.String() != "100" {
		t.Fatalf("unexpected ledger aggregates: opening=%s closing=%s",
			l.OpeningCarryIn.String(), l.ClosingBalance.String())
	}
}

func TestSecondMovementChainsCarryForward(t *testing.T) {
	r, _ := newTestRecorder(t)

	in := testMovement("2025-11-01")
	in.StockAdded = qty("100")
	mustRecord(t, r, in)

	in = testMovement("2025-11-02")
	in.Sales = qty("30")
	res := mustRecord(t, r, in)

	if res.Entry.CarryForward.String() != "100" {
		t.Fatalf("expected carry forward 100, got %s", res.Entry.CarryForward.String())
	}
	if res.Entry.Balance.String() != "70" {
		t.Fatalf("expected balance 70, got %s", res.Entry.Balance.String())
	}
}

func TestBackdatedCorrectionRecomputesSuffix(t *testing.T) {
	r, store := newTestRecorder(t)

	in := testMovement("2025-11-01")
	in.StockAdded = qty("100")
	first := mustRecord(t, r, in)

	in = testMovement("2025-11-02")
	in.Sales = qty("30")
	mustRecord(t, r, in)

	// Overwrite the first day: same date, corrected quantity.
	in = testMovement("2025-11-01")
	in.StockAdded = qty("150")
	corrected := mustRecord(t, r, in)

	if corrected.Entry.Balance.String() != "150" {
		t.Fatalf("expected corrected balance 150, got %s", corrected.Entry.Balance.String())
	}
	if corrected.Entry.ID != first.Entry.ID {
		t.Fatalf("correction must amend the stored row, not insert a new one")
	}

	l := ledgerFor(t, store, testProduct, 2025, 11)
	entries := entriesFor(t, store, l.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after overwrite, got %d", len(entries))
	}
	if entries[1].CarryForward.String() != "150" || entries[1].Balance.String() != "120" {
		t.Fatalf("suffix not recomputed: carry=%s balance=%s",
			entries[1].CarryForward.String(), entries[1].Balance.String())
	}
	if l.TotalStockAdded.String() != "150" || l.TotalSales.String() != "30" || l.ClosingBalance.String() != "120" {
		t.Fatalf("ledger aggregates stale: added=%s sales=%s closing=%s",
			l.TotalStockAdded.String(), l.TotalSales.String(), l.ClosingBalance.String())
	}
}

func TestMonthRolloverInheritsClosingBalance(t *testing.T) {
	r, store := newTestRecorder(t)

	in := testMovement("2025-11-01")
	in.StockAdded = qty("150")
	mustRecord(t, r, in)
	in = testMovement("2025-11-02")
	in.Sales = qty("30")
	mustRecord(t, r, in)

	in = testMovement("2025-12-01")
	in.Sales = qty("20")
	res := mustRecord(t, r, in)

	if res.Entry.CarryForward.String() != "120" {
		t.Fatalf("December must inherit November's closing 120, got %s", res.Entry.CarryForward.String())
	}
	if res.Entry.Balance.String() != "100" {
		t.Fatalf("expected balance 100, got %s", res.Entry.Balance.String())
	}
	dec := ledgerFor(t, store, testProduct, 2025, 12)
	if dec.OpeningCarryIn.String() != "120" {
		t.Fatalf("expected December opening carry-in 120, got %s", dec.OpeningCarryIn.String())
	}
}

func TestBackdatedCorrectionPropagatesAcrossMonths(t *testing.T) {
	r, store := newTestRecorder(t)

	in := testMovement("2025-11-01")
	in.StockAdded = qty("100")
	mustRecord(t, r, in)
	in = testMovement("2025-12-01")
	in.Sales = qty("20")
	mustRecord(t, r, in)
	in = testMovement("2026-01-05")
	in.Sales = qty("10")
	mustRecord(t, r, in)

	// Backdated correction in November must ripple through December into January.
	in = testMovement("2025-11-01")
	in.StockAdded = qty("200")
	mustRecord(t, r, in)

	dec := ledgerFor(t, store, testProduct, 2025, 12)
	if dec.OpeningCarryIn.String() != "200" || dec.ClosingBalance.String() != "180" {
		t.Fatalf("December not repropagated: opening=%s closing=%s",
			dec.OpeningCarryIn.String(), dec.ClosingBalance.String())
	}
	jan := ledgerFor(t, store, testProduct, 2026, 1)
	if jan.OpeningCarryIn.String() != "180" || jan.ClosingBalance.String() != "170" {
		t.Fatalf("January not repropagated: opening=%s closing=%s",
			jan.OpeningCarryIn.String(), jan.ClosingBalance.String())
	}
	entries := entriesFor(t, store, jan.ID)
	if entries[0].CarryForward.String() != "180" {
		t.Fatalf("January entry carry forward not updated, got %s", entries[0].CarryForward.String())
	}
}

func TestBackfilledMonthClosingAtZeroStillPropagates(t *testing.T) {
	r, store := newTestRecorder(t)

	in := testMovement("2025-11-01")
	in.StockAdded = qty("50")
	mustRecord(t, r, in)
	in = testMovement("2026-01-10")
	in.Sales = qty("10")
	mustRecord(t, r, in)

	// Backfill the gap month so its closing lands exactly on zero. The December
	// ledger is created fresh inside this write, so the propagation decision
	// cannot rely on a prior closing balance existing.
	in = testMovement("2025-12-05")
	in.Sales = qty("50")
	res := mustRecord(t, r, in)

	dec := ledgerFor(t, store, testProduct, 2025, 12)
	if dec.ClosingBalance.String() != "0" {
		t.Fatalf("expected December closing 0, got %s", dec.ClosingBalance.String())
	}

	jan := ledgerFor(t, store, testProduct, 2026, 1)
	if jan.OpeningCarryIn.String() != "0" {
		t.Fatalf("January carry-in must follow December's closing 0, got %s", jan.OpeningCarryIn.String())
	}
	entries := entriesFor(t, store, jan.ID)
	if entries[0].CarryForward.String() != "0" || entries[0].Balance.String() != "-10" {
		t.Fatalf("January entry stale: carry=%s balance=%s",
			entries[0].CarryForward.String(), entries[0].Balance.String())
	}
	if !entries[0].NegativeBalance {
		t.Fatalf("January entry must be flagged negative after propagation")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Balance.String() != "-10" {
		t.Fatalf("December write must surface January's warning, got %v", res.Warnings)
	}
}

func TestGapMonthsCarryAcross(t *testing.T) {
	r, _ := newTestRecorder(t)

	in := testMovement("2025-01-15")
	in.ProductId = 8
	in.StockAdded = qty("50")
	mustRecord(t, r, in)

	// February and March have no activity at all.
	in = testMovement("2025-04-10")
	in.ProductId = 8
	in.Sales = qty("20")
	res := mustRecord(t, r, in)

	if res.Entry.CarryForward.String() != "50" {
		t.Fatalf("April must inherit January's closing across the gap, got %s", res.Entry.CarryForward.String())
	}
	if res.Entry.Balance.String() != "30" {
		t.Fatalf("expected balance 30, got %s", res.Entry.Balance.String())
	}
}

func TestNegativeBalanceWarnsButWrites(t *testing.T) {
	r, store := newTestRecorder(t)

	in := testMovement("2025-11-01")
	in.Sales = qty("50")
	res := mustRecord(t, r, in)

	if res.Entry.Balance.String() != "-50" {
		t.Fatalf("expected balance -50, got %s", res.Entry.Balance.String())
	}
	if !res.Entry.NegativeBalance {
		t.Fatalf("entry must be flagged negative")
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 consistency warning, got %d", len(res.Warnings))
	}
	if res.Warnings[0].Balance.String() != "-50" {
		t.Fatalf("warning balance mismatch: %s", res.Warnings[0].Balance.String())
	}

	// The write must have gone through regardless.
	l := ledgerFor(t, store, testProduct, 2025, 11)
	if l.ClosingBalance.String() != "-50" {
		t.Fatalf("negative write must persist, got closing %s", l.ClosingBalance.String())
	}
}

func TestValidationRejectsBeforeWriting(t *testing.T) {
	r, store := newTestRecorder(t)

	cases := []struct {
		name   string
		mutate func(*MovementInput)
	}{
		{"missing quantity", func(in *MovementInput) { in.Sales = nil }},
		{"negative quantity", func(in *MovementInput) { in.DamageStock = qty("-1") }},
		{"malformed date", func(in *MovementInput) { in.Date = "01/11/2025" }},
		{"impossible date", func(in *MovementInput) { in.Date = "2025-13-40" }},
		{"zero product id", func(in *MovementInput) { in.ProductId = 0 }},
		{"missing tenant", func(in *MovementInput) { in.TenantId = "" }},
	}
	for _, tc := range cases {
		in := testMovement("2025-11-01")
		in.StockAdded = qty("10")
		tc.mutate(in)

		_, err := r.RecordMovement(context.Background(), in)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}

	ledgers, err := store.ListLedgers(context.Background(), testTenant, testProduct)
	if err != nil {
		t.Fatalf("ListLedgers: %v", err)
	}
	if len(ledgers) != 0 {
		t.Fatalf("rejected inputs must not write anything, found %d ledgers", len(ledgers))
	}
}

func TestUnknownTenantOrProduct(t *testing.T) {
	r, _ := newTestRecorder(t)

	in := testMovement("2025-11-01")
	in.TenantId = "99999999-0000-0000-0000-000000000000"
	_, err := r.RecordMovement(context.Background(), in)
	var nf *models.NotFoundError
	if !errors.As(err, &nf) || nf.Resource != "tenant" {
		t.Fatalf("expected tenant NotFoundError, got %v", err)
	}

	in = testMovement("2025-11-01")
	in.ProductId = 42
	_, err = r.RecordMovement(context.Background(), in)
	if !errors.As(err, &nf) || nf.Resource != "product" {
		t.Fatalf("expected product NotFoundError, got %v", err)
	}
}

func TestEntryDatesNormalizeToUTCDay(t *testing.T) {
	r, store := newTestRecorder(t)

	in := testMovement("2025-11-03")
	in.StockAdded = qty("5")
	res := mustRecord(t, r, in)

	expected := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	if !res.Entry.EntryDate.Equal(expected) {
		t.Fatalf("expected entry date %v, got %v", expected, res.Entry.EntryDate)
	}

	dates, err := store.ListAvailableDates(context.Background(), testTenant, testProduct)
	if err != nil {
		t.Fatalf("ListAvailableDates: %v", err)
	}
	if len(dates) != 1 || !dates[0].Equal(expected) {
		t.Fatalf("unexpected available dates: %v", dates)
	}
}

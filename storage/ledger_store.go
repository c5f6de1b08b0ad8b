package storage

import (
	"context"
	"time"

	"github.com/stagefront/concession_backend/models"
)

// MonthKey identifies a ledger month, for UI month pickers.
type MonthKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// LedgerStore is pure persistence for monthly ledgers and their daily entries.
// No business logic lives here; the recompute engine drives it through
// InTransaction so that a suffix rewrite is all-or-nothing.
//
// Lookups return (nil, nil) when the record is absent: a ledger that has never
// been written to is a valid, empty state, not an error.
type LedgerStore interface {
	GetLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error)
	CreateLedger(ctx context.Context, ledger *models.MonthlyLedger) error
	SaveLedger(ctx context.Context, ledger *models.MonthlyLedger) error

	// UpsertEntry inserts or replaces the entry keyed by (ledger, date). An
	// existing row keeps its id and created_at; only movements and derived
	// fields change.
	UpsertEntry(ctx context.Context, entry *models.DailyEntry) error
	// SaveEntries persists a recomputed suffix in one shot.
	SaveEntries(ctx context.Context, entries []*models.DailyEntry) error
	// ListEntries returns the ledger's entries in ascending date order.
	ListEntries(ctx context.Context, ledgerId int) ([]*models.DailyEntry, error)

	// PreviousLedger / NextLedger return the closest ledger strictly before /
	// after (year, month) for the same tenant and product. Months are sparse;
	// the neighbor is not necessarily the adjacent calendar month.
	PreviousLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error)
	NextLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error)

	// ListLedgers returns all ledgers for a tenant/product in ascending
	// (year, month) order.
	ListLedgers(ctx context.Context, tenantId string, productId int) ([]*models.MonthlyLedger, error)
	// ListLedgersByMonth returns every product's ledger for one tenant month.
	ListLedgersByMonth(ctx context.Context, tenantId string, year, month int) ([]*models.MonthlyLedger, error)
	// ListLedgerProducts returns the distinct product ids that have at least
	// one ledger for the tenant.
	ListLedgerProducts(ctx context.Context, tenantId string) ([]int, error)
	// ListAvailableDates returns every recorded entry date for a
	// tenant/product, ascending. Feeds UI date pickers.
	ListAvailableDates(ctx context.Context, tenantId string, productId int) ([]time.Time, error)

	// InTransaction runs fn against a transaction-scoped store. Any error
	// rolls the whole batch back; readers never observe a partial rewrite.
	InTransaction(ctx context.Context, fn func(LedgerStore) error) error
}

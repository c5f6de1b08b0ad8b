package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stagefront/concession_backend/config"
	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage"
)

var errDryRunRollback = errors.New("dry run rollback")

// LegacySalesMigration renames the legacy usedStock field to sales across a
// tenant's historical ledgers. Idempotent: a second run finds nothing left to
// move and is a no-op. It runs through the same store transaction and
// per-(tenant,product) lock as live writes, so it is safe to invoke while
// production traffic is flowing — never a bespoke script around the
// invariant-preserving write path.
type LegacySalesMigration struct {
	store  storage.LedgerStore
	locker *LedgerLocker
	recalc *BalanceRecalculator
	logger *logrus.Logger

	// DryRun counts what would move and rolls everything back.
	DryRun bool
}

func NewLegacySalesMigration(store storage.LedgerStore, locker *LedgerLocker, recalc *BalanceRecalculator, logger *logrus.Logger) *LegacySalesMigration {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &LegacySalesMigration{
		store:  store,
		locker: locker,
		recalc: recalc,
		logger: logger,
	}
}

// Run migrates every product of the tenant, one locked transaction per
// product, and returns the number of entries moved.
func (m *LegacySalesMigration) Run(ctx context.Context, tenantId string) (int, error) {
	products, err := m.store.ListLedgerProducts(ctx, tenantId)
	if err != nil {
		return 0, fmt.Errorf("legacy sales migration: %w", err)
	}

	total := 0
	for _, productId := range products {
		n, err := m.migrateProduct(ctx, tenantId, productId)
		if err != nil {
			return total, fmt.Errorf("legacy sales migration (product %d): %w", productId, err)
		}
		total += n
	}

	m.logger.WithFields(logrus.Fields{
		"tenant_id": tenantId,
		"products":  len(products),
		"migrated":  total,
		"dry_run":   m.DryRun,
	}).Info("stockledger.usedstock_migration")

	return total, nil
}

func (m *LegacySalesMigration) migrateProduct(ctx context.Context, tenantId string, productId int) (int, error) {
	if m.locker != nil {
		lock, err := m.locker.Acquire(ctx, tenantId, productId)
		if err != nil {
			return 0, err
		}
		defer func() {
			if releaseErr := lock.Release(ctx); releaseErr != nil {
				config.LogError(m.logger, "legacySalesMigration.go", "migrateProduct", "Release ledger lock",
					LedgerLockKey(tenantId, productId), releaseErr)
			}
		}()
	}

	migrated := 0
	err := m.store.InTransaction(ctx, func(tx storage.LedgerStore) error {
		ledgers, err := tx.ListLedgers(ctx, tenantId, productId)
		if err != nil {
			return err
		}
		for _, ledger := range ledgers {
			entries, err := tx.ListEntries(ctx, ledger.ID)
			if err != nil {
				return err
			}
			var changed []*models.DailyEntry
			for _, e := range entries {
				if e.UsedStock == nil {
					continue
				}
				e.Sales = *e.UsedStock
				e.UsedStock = nil
				changed = append(changed, e)
			}
			if len(changed) == 0 {
				continue
			}
			migrated += len(changed)
			if err := tx.SaveEntries(ctx, changed); err != nil {
				return err
			}
			// Legacy rows may carry stale derived fields; settle the whole
			// ledger and let the cascade fix later months.
			if _, err := m.recalc.Recompute(ctx, tx, ledger, time.Time{}); err != nil {
				return err
			}
		}
		if m.DryRun {
			return errDryRunRollback
		}
		return nil
	})
	if errors.Is(err, errDryRunRollback) {
		err = nil
	}
	if err != nil {
		return 0, err
	}
	return migrated, nil
}

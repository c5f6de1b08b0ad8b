package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/stagefront/concession_backend/config"
	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage"
)

// RebuildLedgerChain recomputes every ledger of a tenant/product from scratch,
// in ascending month order, inside one store transaction. Unlike the cascade —
// which stops at the first month whose carry-in already matches — this walks
// the whole chain unconditionally, so it also repairs a corrupted later month
// sitting behind healthy earlier ones.
func RebuildLedgerChain(ctx context.Context, st storage.LedgerStore, locker *LedgerLocker, recalc *BalanceRecalculator, tenantId string, productId int) ([]models.ConsistencyWarning, error) {
	if locker != nil {
		lock, err := locker.Acquire(ctx, tenantId, productId)
		if err != nil {
			return nil, err
		}
		defer func() {
			if releaseErr := lock.Release(ctx); releaseErr != nil {
				config.LogError(config.GetLogger(), "ledgerRebuild.go", "RebuildLedgerChain", "Release ledger lock",
					LedgerLockKey(tenantId, productId), releaseErr)
			}
		}()
	}

	var warnings []models.ConsistencyWarning
	err := st.InTransaction(ctx, func(tx storage.LedgerStore) error {
		ledgers, err := tx.ListLedgers(ctx, tenantId, productId)
		if err != nil {
			return err
		}
		// A month recomputed by an earlier month's cascade gets recomputed
		// again here; that is idempotent, only the warnings would double up.
		seen := make(map[string]bool)
		for _, ledger := range ledgers {
			ws, err := recalc.Recompute(ctx, tx, ledger, time.Time{})
			if err != nil {
				return err
			}
			for _, w := range ws {
				key := fmt.Sprintf("%d|%s", w.ProductId, w.EntryDate.Format("2006-01-02"))
				if seen[key] {
					continue
				}
				seen[key] = true
				warnings = append(warnings, w)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild ledger chain (tenant %s, product %d): %w", tenantId, productId, err)
	}
	return warnings, nil
}

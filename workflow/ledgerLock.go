package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	"github.com/stagefront/concession_backend/models"
)

const (
	ledgerLockTTL      = 30 * time.Second
	ledgerLockRetryMin = 100 * time.Millisecond
	ledgerLockRetryMax = 2 * time.Second
	ledgerLockRetries  = 8
)

// LedgerLocker serializes writers of one (tenant, product) ledger chain across
// instances. Recompute may rewrite a suffix spanning multiple months, so
// uncoordinated writers would corrupt the carry-forward chain.
type LedgerLocker struct {
	client *redislock.Client
}

func NewLedgerLocker(client *redislock.Client) *LedgerLocker {
	return &LedgerLocker{client: client}
}

func LedgerLockKey(tenantId string, productId int) string {
	return fmt.Sprintf("stockledger:%s:%d", tenantId, productId)
}

// Acquire obtains the per-(tenant,product) lock, retrying with exponential
// backoff a bounded number of times before surfacing ConcurrencyError.
func (l *LedgerLocker) Acquire(ctx context.Context, tenantId string, productId int) (*redislock.Lock, error) {
	key := LedgerLockKey(tenantId, productId)
	lock, err := l.client.Obtain(ctx, key, ledgerLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(
			redislock.ExponentialBackoff(ledgerLockRetryMin, ledgerLockRetryMax),
			ledgerLockRetries,
		),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, &models.ConcurrencyError{Key: key, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("obtain ledger lock %s: %w", key, err)
	}
	return lock, nil
}

package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationError rejects a movement before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown tenant or product on a write path.
// Reads never return it: an absent ledger is a valid, empty state.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConcurrencyError reports a timeout acquiring the per-(tenant,product)
// serialization lock after bounded retries.
type ConcurrencyError struct {
	Key string
	Err error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("could not acquire ledger lock %s: %v", e.Key, e.Err)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

// ConsistencyWarning flags a recomputed balance that went negative.
// Warnings never block a write; kiosk staff backfill messy counts and a hard
// rejection would make correction impossible.
type ConsistencyWarning struct {
	TenantId  string          `json:"tenant_id"`
	ProductId int             `json:"product_id"`
	EntryDate time.Time       `json:"entry_date"`
	Balance   decimal.Decimal `json:"balance"`
}

func (w ConsistencyWarning) String() string {
	return fmt.Sprintf("negative balance %s on %s (tenant=%s product=%d)",
		w.Balance.String(), w.EntryDate.Format("2006-01-02"), w.TenantId, w.ProductId)
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/stagefront/concession_backend/config"
	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage"
	"github.com/stagefront/concession_backend/utils"
)

// MovementInput is one day's stock movements for a tenant/product. Quantities
// are pointers so a missing value is rejected rather than read as zero.
type MovementInput struct {
	TenantId  string `json:"tenant_id" validate:"required"`
	ProductId int    `json:"product_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`

	StockAdded      *decimal.Decimal `json:"stock_added" validate:"required"`
	ExpiredOldStock *decimal.Decimal `json:"expired_old_stock" validate:"required"`
	Sales           *decimal.Decimal `json:"sales" validate:"required"`
	ExpiredStock    *decimal.Decimal `json:"expired_stock" validate:"required"`
	DamageStock     *decimal.Decimal `json:"damage_stock" validate:"required"`
}

// MovementResult carries the finalized entry plus any reconciliation warnings
// raised by the recompute cascade.
type MovementResult struct {
	Entry         *models.DailyEntry          `json:"entry"`
	Warnings      []models.ConsistencyWarning `json:"warnings,omitempty"`
	CorrelationId string                      `json:"correlation_id"`
}

// EntryRecorder validates and records a single day's movement, then drives the
// recompute cascade. The whole operation is one store transaction: either the
// entry, the suffix recompute and any cross-month propagation all commit, or
// nothing does.
type EntryRecorder struct {
	store    storage.LedgerStore
	registry models.Registry
	locker   *LedgerLocker // optional; nil relies on the store transaction for serialization
	recalc   *BalanceRecalculator
	logger   *logrus.Logger
	validate *validator.Validate
}

func NewEntryRecorder(store storage.LedgerStore, registry models.Registry, locker *LedgerLocker, recalc *BalanceRecalculator, logger *logrus.Logger) *EntryRecorder {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &EntryRecorder{
		store:    store,
		registry: registry,
		locker:   locker,
		recalc:   recalc,
		logger:   logger,
		validate: validator.New(),
	}
}

// RecordMovement inserts or overwrites the entry for in.Date and recomputes
// every chronologically later entry, across month boundaries where needed.
func (r *EntryRecorder) RecordMovement(ctx context.Context, in *MovementInput) (*MovementResult, error) {
	if err := r.validateInput(in); err != nil {
		return nil, err
	}
	entryDate, err := utils.ParseDate(in.Date)
	if err != nil {
		return nil, &models.ValidationError{Field: "date", Reason: err.Error()}
	}

	ok, err := r.registry.TenantExists(ctx, in.TenantId)
	if err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}
	if !ok {
		return nil, &models.NotFoundError{Resource: "tenant", ID: in.TenantId}
	}
	ok, err = r.registry.ProductExists(ctx, in.TenantId, in.ProductId)
	if err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}
	if !ok {
		return nil, &models.NotFoundError{Resource: "product", ID: strconv.Itoa(in.ProductId)}
	}

	if r.locker != nil {
		lock, err := r.locker.Acquire(ctx, in.TenantId, in.ProductId)
		if err != nil {
			return nil, err
		}
		defer func() {
			if releaseErr := lock.Release(ctx); releaseErr != nil {
				config.LogError(r.logger, "entryRecorder.go", "RecordMovement", "Release ledger lock",
					LedgerLockKey(in.TenantId, in.ProductId), releaseErr)
			}
		}()
	}

	correlationId := uuid.NewString()
	var result *MovementResult
	err = r.store.InTransaction(ctx, func(tx storage.LedgerStore) error {
		ledger, err := tx.GetLedger(ctx, in.TenantId, in.ProductId, entryDate.Year(), int(entryDate.Month()))
		if err != nil {
			return err
		}
		if ledger == nil {
			ledger = &models.MonthlyLedger{
				TenantId:  in.TenantId,
				ProductId: in.ProductId,
				Year:      entryDate.Year(),
				Month:     int(entryDate.Month()),
			}
			if err := tx.CreateLedger(ctx, ledger); err != nil {
				return err
			}
		}

		// Derived fields stay zero here; the recompute pass settles them.
		entry := &models.DailyEntry{
			ID:              uuid.NewString(),
			LedgerId:        ledger.ID,
			TenantId:        in.TenantId,
			ProductId:       in.ProductId,
			EntryDate:       entryDate,
			StockAdded:      *in.StockAdded,
			ExpiredOldStock: *in.ExpiredOldStock,
			Sales:           *in.Sales,
			ExpiredStock:    *in.ExpiredStock,
			DamageStock:     *in.DamageStock,
			CorrelationId:   correlationId,
		}
		if err := tx.UpsertEntry(ctx, entry); err != nil {
			return err
		}

		warnings, err := r.recalc.Recompute(ctx, tx, ledger, entryDate)
		if err != nil {
			return err
		}

		final, err := findEntryByDate(ctx, tx, ledger.ID, entryDate)
		if err != nil {
			return err
		}
		result = &MovementResult{
			Entry:         final,
			Warnings:      warnings,
			CorrelationId: correlationId,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"tenant_id":      in.TenantId,
		"product_id":     in.ProductId,
		"entry_date":     in.Date,
		"balance":        result.Entry.Balance.String(),
		"warnings":       len(result.Warnings),
		"correlation_id": correlationId,
	}).Info("stockledger.movement_recorded")

	return result, nil
}

func (r *EntryRecorder) validateInput(in *MovementInput) error {
	if in == nil {
		return &models.ValidationError{Field: "input", Reason: "required"}
	}
	if err := r.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return &models.ValidationError{Field: f.Field(), Reason: "failed '" + f.Tag() + "' validation"}
		}
		return &models.ValidationError{Field: "input", Reason: err.Error()}
	}
	quantities := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"stock_added", in.StockAdded},
		{"expired_old_stock", in.ExpiredOldStock},
		{"sales", in.Sales},
		{"expired_stock", in.ExpiredStock},
		{"damage_stock", in.DamageStock},
	}
	for _, q := range quantities {
		if q.value.IsNegative() {
			return &models.ValidationError{Field: q.name, Reason: "must not be negative"}
		}
	}
	return nil
}

func findEntryByDate(ctx context.Context, st storage.LedgerStore, ledgerId int, date time.Time) (*models.DailyEntry, error) {
	entries, err := st.ListEntries(ctx, ledgerId)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.EntryDate.Equal(date) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("entry for %s missing after recompute", utils.FormatDate(date))
}

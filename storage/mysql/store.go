package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stagefront/concession_backend/models"
	"github.com/stagefront/concession_backend/storage"
)

// Store is the gorm/MySQL implementation of storage.LedgerStore.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	var ledger models.MonthlyLedger
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND year = ? AND month = ?", tenantId, productId, year, month).
		First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return &ledger, nil
}

func (s *Store) CreateLedger(ctx context.Context, ledger *models.MonthlyLedger) error {
	if err := s.db.WithContext(ctx).Create(ledger).Error; err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}
	return nil
}

func (s *Store) SaveLedger(ctx context.Context, ledger *models.MonthlyLedger) error {
	if err := s.db.WithContext(ctx).Save(ledger).Error; err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (s *Store) UpsertEntry(ctx context.Context, entry *models.DailyEntry) error {
	// Conflict on (ledger_id, entry_date): the existing row keeps its id and
	// created_at, movements and derived fields are replaced.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ledger_id"}, {Name: "entry_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stock_added", "expired_old_stock", "sales", "expired_stock", "damage_stock",
			"used_stock", "carry_forward", "balance", "negative_balance", "correlation_id",
		}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	// Create leaves entry.ID as the generated uuid even when MySQL resolved
	// the conflict against an existing row; reload so callers see the stored
	// identity.
	var stored models.DailyEntry
	if err := s.db.WithContext(ctx).
		Where("ledger_id = ? AND entry_date = ?", entry.LedgerId, entry.EntryDate).
		First(&stored).Error; err != nil {
		return fmt.Errorf("reload upserted entry: %w", err)
	}
	*entry = stored
	return nil
}

func (s *Store) SaveEntries(ctx context.Context, entries []*models.DailyEntry) error {
	for _, e := range entries {
		if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
			return fmt.Errorf("save entry %s: %w", e.EntryDate.Format("2006-01-02"), err)
		}
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, ledgerId int) ([]*models.DailyEntry, error) {
	var entries []*models.DailyEntry
	err := s.db.WithContext(ctx).
		Where("ledger_id = ?", ledgerId).
		Order("entry_date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (s *Store) PreviousLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	var ledger models.MonthlyLedger
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND (year < ? OR (year = ? AND month < ?))",
			tenantId, productId, year, year, month).
		Order("year DESC, month DESC").
		First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("previous ledger: %w", err)
	}
	return &ledger, nil
}

func (s *Store) NextLedger(ctx context.Context, tenantId string, productId, year, month int) (*models.MonthlyLedger, error) {
	var ledger models.MonthlyLedger
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND (year > ? OR (year = ? AND month > ?))",
			tenantId, productId, year, year, month).
		Order("year ASC, month ASC").
		First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next ledger: %w", err)
	}
	return &ledger, nil
}

func (s *Store) ListLedgers(ctx context.Context, tenantId string, productId int) ([]*models.MonthlyLedger, error) {
	var ledgers []*models.MonthlyLedger
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantId, productId).
		Order("year ASC, month ASC").
		Find(&ledgers).Error
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	return ledgers, nil
}

func (s *Store) ListLedgersByMonth(ctx context.Context, tenantId string, year, month int) ([]*models.MonthlyLedger, error) {
	var ledgers []*models.MonthlyLedger
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND year = ? AND month = ?", tenantId, year, month).
		Order("product_id ASC").
		Find(&ledgers).Error
	if err != nil {
		return nil, fmt.Errorf("list ledgers by month: %w", err)
	}
	return ledgers, nil
}

func (s *Store) ListLedgerProducts(ctx context.Context, tenantId string) ([]int, error) {
	var productIds []int
	err := s.db.WithContext(ctx).
		Model(&models.MonthlyLedger{}).
		Distinct("product_id").
		Where("tenant_id = ?", tenantId).
		Order("product_id ASC").
		Pluck("product_id", &productIds).Error
	if err != nil {
		return nil, fmt.Errorf("list ledger products: %w", err)
	}
	return productIds, nil
}

func (s *Store) ListAvailableDates(ctx context.Context, tenantId string, productId int) ([]time.Time, error) {
	var dates []time.Time
	err := s.db.WithContext(ctx).
		Model(&models.DailyEntry{}).
		Distinct("entry_date").
		Where("tenant_id = ? AND product_id = ?", tenantId, productId).
		Order("entry_date ASC").
		Pluck("entry_date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("list available dates: %w", err)
	}
	return dates, nil
}

func (s *Store) InTransaction(ctx context.Context, fn func(storage.LedgerStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

var _ storage.LedgerStore = (*Store)(nil)

package models

import "gorm.io/gorm"

// MigrateTable creates/updates the ledger tables.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Tenant{},
		&Product{},
		&MonthlyLedger{},
		&DailyEntry{},
	)
}

package models

import "gorm.io/gorm"

// Migrate creates or updates every table the stores read and write.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&Tag{},
		&Budget{}, &BudgetLimit{},
		&Journal{},
	)
}

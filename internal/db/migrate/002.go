package migrate

import (
	"gorm.io/gorm"
)

func init() {
	RegisterAfterAutoMigration(Migration{
		Version: 2,
		Up:      backfillModelDisplayName,
	})
}

// 002: catalog rows synced before display names were mirrored.
func backfillModelDisplayName(db *gorm.DB) error {
	return db.Exec("UPDATE openrouter_models SET display_name = model_id WHERE display_name IS NULL OR display_name = ''").Error
}

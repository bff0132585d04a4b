package migrate

import (
	"fmt"

	"gorm.io/gorm"
)

func init() {
	RegisterBeforeAutoMigration(Migration{
		Version: 1,
		Up:      renameLegacyMessageModelColumn,
	})
}

// 001: early builds stored the answering model in messages.model.
func renameLegacyMessageModelColumn(db *gorm.DB) error {
	if !db.Migrator().HasTable("messages") {
		return nil
	}
	legacy, err := hasColumn(db, "messages", "model")
	if err != nil {
		return err
	}
	if !legacy {
		return nil
	}
	current, err := hasColumn(db, "messages", "model_id_used")
	if err != nil {
		return err
	}
	if current {
		return nil
	}
	if err := db.Migrator().RenameColumn("messages", "model", "model_id_used"); err != nil {
		return fmt.Errorf("failed to rename messages.model: %w", err)
	}
	return nil
}

package migrate

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migration is a one-off data or schema fix. Versions are global across the
// before and after phases and each one runs until it succeeds once.
type Migration struct {
	Version int
	Up      func(db *gorm.DB) error
}

type MigrationRecordStatus int

const (
	MigrationRecordStatusSuccess MigrationRecordStatus = iota + 1
	MigrationRecordStatusFailed
)

type MigrationRecord struct {
	Version   int `gorm:"primaryKey"`
	Status    MigrationRecordStatus
	AppliedAt time.Time
}

var beforeAutoMigrations, afterAutoMigrations []Migration

func RegisterBeforeAutoMigration(m Migration) {
	beforeAutoMigrations = append(beforeAutoMigrations, m)
}

func RegisterAfterAutoMigration(m Migration) {
	afterAutoMigrations = append(afterAutoMigrations, m)
}

// BeforeAutoMigrate runs the migrations that must see the schema as it was
// before AutoMigrate touches it (renames, legacy columns).
func BeforeAutoMigrate(db *gorm.DB) error {
	return run(db, beforeAutoMigrations)
}

// AfterAutoMigrate runs the data backfills that need the current schema.
func AfterAutoMigrate(db *gorm.DB) error {
	return run(db, afterAutoMigrations)
}

// hasColumn checks sqlite through pragma_table_info, gorm's HasColumn can
// match on the column definition text there.
func hasColumn(db *gorm.DB, table, column string) (bool, error) {
	if db.Dialector.Name() == "sqlite" {
		var name string
		if err := db.Raw("SELECT name FROM pragma_table_info(?) WHERE name = ? LIMIT 1", table, column).
			Scan(&name).Error; err != nil {
			return false, fmt.Errorf("failed to check sqlite column %s.%s: %w", table, column, err)
		}
		return name == column, nil
	}
	return db.Migrator().HasColumn(table, column), nil
}

// run applies the pending migrations in version order. Each one runs in its
// own transaction together with its success record; a failure is recorded
// outside it and stops the run.
func run(db *gorm.DB, migrations []Migration) error {
	if len(migrations) == 0 {
		return nil
	}
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migration records table: %w", err)
	}

	ordered := slices.SortedFunc(slices.Values(migrations), func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Version == ordered[i-1].Version {
			return fmt.Errorf("duplicated migration version: %d", ordered[i].Version)
		}
	}

	var done []int
	if err := db.Model(&MigrationRecord{}).
		Where("status = ?", MigrationRecordStatusSuccess).
		Pluck("version", &done).Error; err != nil {
		return fmt.Errorf("failed to query migration records: %w", err)
	}

	for _, m := range ordered {
		if slices.Contains(done, m.Version) {
			continue
		}
		if m.Up == nil {
			return fmt.Errorf("migration %d has nil Up", m.Version)
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return record(tx, m.Version, MigrationRecordStatusSuccess)
		})
		if err != nil {
			if rerr := record(db, m.Version, MigrationRecordStatusFailed); rerr != nil {
				log.Warnf("failed to record failure of migration %d: %v", m.Version, rerr)
			}
			return fmt.Errorf("failed to run migration %d: %w", m.Version, err)
		}
		log.Infof("applied migration %03d", m.Version)
	}
	return nil
}

func record(db *gorm.DB, version int, status MigrationRecordStatus) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "version"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "applied_at"}),
	}).Create(&MigrationRecord{Version: version, Status: status, AppliedAt: time.Now()}).Error
}

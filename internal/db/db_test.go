package db

import (
	"testing"

	"github.com/gloriamundo/gloriamundo/internal/db/migrate"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	cases := []struct {
		in     string
		dbType string
		dsn    string
	}{
		{"sqlite://data/app.db", "sqlite", "data/app.db"},
		{"data/app.db", "sqlite", "data/app.db"},
		{"postgres://u:p@localhost:5432/gm?sslmode=disable", "postgres", "postgres://u:p@localhost:5432/gm?sslmode=disable"},
		{"postgresql://u@db/gm", "postgres", "postgresql://u@db/gm"},
		{"mysql://u:p@tcp(localhost:3306)/gm", "mysql", "u:p@tcp(localhost:3306)/gm"},
	}
	for _, tc := range cases {
		dbType, dsn, err := ParseURL(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.dbType, dbType, tc.in)
		require.Equal(t, tc.dsn, dsn, tc.in)
	}

	_, _, err := ParseURL("redis://localhost")
	require.Error(t, err)
	_, _, err = ParseURL("  ")
	require.Error(t, err)
}

func TestInitMemoryRunsMigrations(t *testing.T) {
	require.NoError(t, InitMemory())
	t.Cleanup(func() { _ = Close() })

	var records []migrate.MigrationRecord
	require.NoError(t, GetDB().Order("version").Find(&records).Error)
	require.Len(t, records, 3)
	for _, r := range records {
		require.Equal(t, migrate.MigrationRecordStatusSuccess, r.Status)
	}

	require.NoError(t, GetDB().Create(&model.ModelDescriptor{ModelID: "openai/gpt-4o", Active: true}).Error)
	require.NoError(t, migrate.AfterAutoMigrate(GetDB()))
	var m model.ModelDescriptor
	require.NoError(t, GetDB().First(&m, "model_id = ?", "openai/gpt-4o").Error)
	// 002 already ran, it is recorded and not repeated
	require.Equal(t, "", m.DisplayName)
}

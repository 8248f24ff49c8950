package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates a file-backed SQLite database with a seeded contacts
// table and returns both a GORM handle and an sqlx handle on the same pool.
//
// Active rows: ids 1-22 ("Contact NN"), 23 John Smith, 24 Jane Doe (smith in
// email), 25 Piet Jansen (smith only in city). Row 26 is soft-deleted and
// matches "smith" in name and email.
func openTestDB(t *testing.T) (*gorm.DB, *sqlx.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crudread.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, gdb.Exec(`CREATE TABLE contacts (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		deleted_at DATETIME NULL
	)`).Error)

	for i := 1; i <= 22; i++ {
		require.NoError(t, gdb.Exec(
			"INSERT INTO contacts (id, name, email, city) VALUES (?, ?, ?, ?)",
			i, fmt.Sprintf("Contact %02d", i), fmt.Sprintf("contact%02d@example.org", i), "Goes",
		).Error)
	}
	fixtures := []struct {
		id                int
		name, email, city string
		deleted           bool
	}{
		{23, "John Smith", "john@example.org", "Goes", false},
		{24, "Jane Doe", "jsmith@example.org", "Vlissingen", false},
		{25, "Piet Jansen", "piet@example.org", "Smithfield", false},
		{26, "Deleted Smith", "deleted.smith@example.org", "Goes", true},
	}
	for _, f := range fixtures {
		var deletedAt any
		if f.deleted {
			deletedAt = "2024-01-01 00:00:00"
		}
		require.NoError(t, gdb.Exec(
			"INSERT INTO contacts (id, name, email, city, deleted_at) VALUES (?, ?, ?, ?, ?)",
			f.id, f.name, f.email, f.city, deletedAt,
		).Error)
	}

	return gdb, sqlx.NewDb(sqlDB, "sqlite3")
}

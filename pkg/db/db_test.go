package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sqlx.DB, name string) bool {
	t.Helper()
	var exists bool
	require.NoError(t, db.Get(&exists, "SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name=?", name))
	return exists
}

func appliedVersions(t *testing.T, runner *MigrationRunner) []int64 {
	t.Helper()
	applied, err := runner.Applied(context.Background())
	require.NoError(t, err)
	var versions []int64
	for _, m := range applied {
		versions = append(versions, m.Version)
	}
	return versions
}

var testMigrations = []Migration{
	{
		Version:     20260101000002,
		Description: "Add column",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec("ALTER TABLE test_table ADD COLUMN name TEXT")
			return err
		},
		Down: func(tx *sql.Tx) error {
			_, err := tx.Exec("ALTER TABLE test_table DROP COLUMN name")
			return err
		},
	},
	{
		Version:     20260101000001,
		Description: "Create test table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec("CREATE TABLE test_table (id INTEGER PRIMARY KEY)")
			return err
		},
		Down: func(tx *sql.Tx) error {
			_, err := tx.Exec("DROP TABLE test_table")
			return err
		},
	},
}

func TestOpen(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	require.NoError(t, db.Get(&journalMode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", journalMode)

	var foreignKeys string
	require.NoError(t, db.Get(&foreignKeys, "PRAGMA foreign_keys"))
	assert.Equal(t, "1", foreignKeys)
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
}

func TestDefaultDBPath(t *testing.T) {
	t.Run("with base path", func(t *testing.T) {
		t.Setenv(BasePathEnv, "/custom/path")
		path, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, "/custom/path/storage.db", path)
	})

	t.Run("without base path", func(t *testing.T) {
		t.Setenv(BasePathEnv, "")
		path, err := DefaultDBPath()
		require.NoError(t, err)
		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, ".skillrunner", "storage.db"), path)
	})
}

func TestMigrationRunnerAppliesInVersionOrder(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	require.NoError(t, runner.Run(context.Background(), testMigrations))

	assert.True(t, tableExists(t, db, "test_table"))
	assert.Equal(t, []int64{20260101000001, 20260101000002}, appliedVersions(t, runner))

	applied, err := runner.Applied(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Create test table", applied[0].Description)
	assert.False(t, applied[0].AppliedAt.IsZero())
}

func TestMigrationRunnerIdempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	require.NoError(t, runner.Run(context.Background(), testMigrations))
	require.NoError(t, runner.Run(context.Background(), testMigrations))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 2, count)
}

func TestMigrationRunnerFailureRollsBack(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	err := runner.Run(context.Background(), []Migration{{
		Version:     20260101000001,
		Description: "Broken",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec("CREATE TABLE half_done (id INTEGER)"); err != nil {
				return err
			}
			return errors.New("boom")
		},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply migration 20260101000001: Broken")

	assert.False(t, tableExists(t, db, "half_done"))
	assert.Empty(t, appliedVersions(t, runner))
}

func TestMigrationRunnerRollback(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	ctx := context.Background()

	require.NoError(t, runner.Run(ctx, testMigrations))

	require.NoError(t, runner.Rollback(ctx, testMigrations))
	assert.Equal(t, []int64{20260101000001}, appliedVersions(t, runner))
	assert.True(t, tableExists(t, db, "test_table"))

	require.NoError(t, runner.Rollback(ctx, testMigrations))
	assert.Empty(t, appliedVersions(t, runner))
	assert.False(t, tableExists(t, db, "test_table"))

	// nothing left to roll back
	require.NoError(t, runner.Rollback(ctx, testMigrations))
}

func TestMigrationRunnerRollbackErrors(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	ctx := context.Background()

	noDown := []Migration{{
		Version:     20260101000001,
		Description: "No down",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec("CREATE TABLE t (id INTEGER)")
			return err
		},
	}}
	require.NoError(t, runner.Run(ctx, noDown))

	assert.EqualError(t, runner.Rollback(ctx, noDown), "migration 20260101000001 has no rollback function")
	assert.EqualError(t, runner.Rollback(ctx, nil), "migration 20260101000001 not found in provided migrations")
}

func TestOpenAndMigrate(t *testing.T) {
	db, err := OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "test.db"), testMigrations)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, tableExists(t, db, "test_table"))
}

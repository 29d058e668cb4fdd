package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func TestUpCreatesSchema(t *testing.T) {
	conn := openSQLite(t)
	sqlDB, err := conn.DB()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, Up(ctx, sqlDB))

	for _, table := range []string{"users", "revoked_tokens", "musics", "payment_codes", "purchases", "download_logs", "favorites", "play_history"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	version, err := Version(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, int64(20250601091000), version)

	// idempotent
	require.NoError(t, Up(ctx, sqlDB))
}

func TestMigrateToVersionRollsBack(t *testing.T) {
	conn := openSQLite(t)
	sqlDB, err := conn.DB()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, Up(ctx, sqlDB))
	require.NoError(t, MigrateToVersion(ctx, sqlDB, "20250601090000"))

	assert.True(t, conn.Migrator().HasTable("users"))
	assert.False(t, conn.Migrator().HasTable("musics"))

	assert.Error(t, MigrateToVersion(ctx, sqlDB, "latest"))
}

func TestValidateEmbedded(t *testing.T) {
	require.NoError(t, Validate())
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	bad := fstest.MapFS{
		"m/create_users.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	assert.ErrorContains(t, ValidateFS(bad, "m"), "invalid migration filename")

	missingDown := fstest.MapFS{
		"m/20250101000000_users.sql": {Data: []byte("-- +goose Up\n")},
	}
	assert.ErrorContains(t, ValidateFS(missingDown, "m"), "missing")

	dup := fstest.MapFS{
		"m/20250101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20250101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	assert.ErrorContains(t, ValidateFS(dup, "m"), "duplicate")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Genres!")
	require.NoError(t, err)
	assert.Regexp(t, `\d{14}_add_genres\.sql$`, path)

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)

	require.NoError(t, ValidateFS(os.DirFS(dir), "."))
}

func TestCreateSQLMigrationSkipsTakenVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	first, err := createAt(dir, "add genres", now)
	require.NoError(t, err)
	second, err := createAt(dir, "add covers", now)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20250601090000_add_genres.sql"), first)
	assert.Equal(t, filepath.Join(dir, "20250601090001_add_covers.sql"), second)

	body, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "-- +goose Down")
}

func TestValidateFSRejectsImpossibleTimestamp(t *testing.T) {
	bad := fstest.MapFS{
		"m/20251399000000_users.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	assert.ErrorContains(t, ValidateFS(bad, "m"), "not a timestamp")
}

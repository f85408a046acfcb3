package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigratorAppliesOnce(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	fsys := fstest.MapFS{
		"002_add_index.sql":    {Data: []byte("CREATE INDEX idx_notes_body ON notes (body);")},
		"001_create_notes.sql": {Data: []byte("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT);")},
		"README.md":            {Data: []byte("ignored")},
	}

	m := NewMigrator(db, nil)
	n, err := m.Run(ctx, fsys)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.Run(ctx, fsys)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	applied, err := m.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true}, applied)
}

func TestMigratorRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	fsys := fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE oops (;")},
	}

	n, err := NewMigrator(db, nil).Run(ctx, fsys)
	assert.Error(t, err)
	assert.Equal(t, 1, n)

	applied, err := NewMigrator(db, nil).AppliedVersions(ctx)
	require.NoError(t, err)
	assert.False(t, applied[2])
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := LoadMigrations(fstest.MapFS{
		"010_later.sql":   {Data: []byte("x")},
		"002_earlier.sql": {Data: []byte("y")},
	})
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, "earlier", migrations[0].Name)
	assert.Equal(t, 10, migrations[1].Version)

	_, err = LoadMigrations(fstest.MapFS{"init.sql": {Data: []byte("x")}})
	assert.Error(t, err)

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("x")},
		"001_b.sql": {Data: []byte("y")},
	})
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

func TestWithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	_, err := db.ExecContext(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (1)")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recordings.db")
	db, err := New(Config{Path: path, MaxOpenConns: 4, MaxIdleConns: 1}, nil)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

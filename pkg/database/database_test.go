package database

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "catalog.db")

	db, err := New(cfg)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)

	assert.NoError(t, CheckFTS5Support(db))
}

func TestNew_InMemory(t *testing.T) {
	t.Parallel()

	db, err := New(config.NewForTest())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t (id INTEGER)")
	require.NoError(t, err)

	// A second statement must see the same in-memory database.
	var n int
	err = db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestIsUnavailableErr(t *testing.T) {
	t.Parallel()

	db, err := New(config.NewForTest())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("SELECT * FROM books")
	require.Error(t, err)
	assert.True(t, IsUnavailableErr(errors.WithStack(err)))

	assert.False(t, IsUnavailableErr(nil))
	assert.False(t, IsUnavailableErr(errors.New("constraint failed")))
}

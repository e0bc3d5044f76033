package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestOpen_MigratesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")

	db, err := Open(path)
	require.NoError(t, err)
	for _, table := range []string{"survey", "survey_page", "survey_question", "response", "response_answer", "local_store", "user", "token"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, table)
	}
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err, "reopening an up to date database")
	defer db.Close()

	var fk bool
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.True(t, fk)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on&_busy_timeout=5000", dsn("a.db"))
	assert.Equal(t, "a.db?mode=rw&_foreign_keys=on&_busy_timeout=5000", dsn("a.db?mode=rw"))
	assert.Equal(t, "a.db?_fk=1&_busy_timeout=5000", dsn("a.db?_fk=1"))
}

func TestEnsureUser(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, EnsureUser(ctx, db, "admin", "first"))
	require.NoError(t, EnsureUser(ctx, db, "admin", "second"))
	assert.Error(t, EnsureUser(ctx, db, "admin", ""))

	var hash []byte
	var roles string
	require.NoError(t, db.QueryRow("SELECT password_hash, roles FROM user WHERE username = 'admin'").Scan(&hash, &roles))
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("second")))
	assert.Equal(t, "admin", roles)
}

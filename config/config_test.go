package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("test", []string{"-token-secret", "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:80", cfg.Addr)
	assert.Equal(t, "surveyforge.sqlite", cfg.DBUrl)
	assert.Equal(t, 120*time.Second, cfg.TokenTTL)
	assert.Equal(t, "http://localhost:80", cfg.Url())
}

func TestParse_MissingSecret(t *testing.T) {
	_, err := Parse("test", nil)
	assert.EqualError(t, err, "missing parameter -token-secret")
}

func TestParse_FileGivesDefaultsFlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surveyforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: 127.0.0.1
port: 9000
db_url: /tmp/from-file.sqlite
token_secret: file-secret
token_ttl: 60
debug: true
admin:
  username: root
  password: pw
`), 0o600))

	cfg, err := Parse("test", []string{"-config", path, "-port", "8081"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8081", cfg.Addr)
	assert.Equal(t, "/tmp/from-file.sqlite", cfg.DBUrl)
	assert.Equal(t, "file-secret", cfg.TokenSecret)
	assert.Equal(t, time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "root", cfg.AdminUser)
	assert.Equal(t, "pw", cfg.AdminPassword)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BartekS5/movies-etl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"DB_NAME", "DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_SCHEMA", "DB_SSLMODE",
	"SQL_LITE_DB_PATH", "SOURCE_TIMEZONE", "COPY_QUOTE_CHAR", "VERIFY_WINDOW",
	"LOG_LEVEL", "LOG_FILE", "LOG_MODE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "movies_database", cfg.DBName)
		assert.Equal(t, "127.0.0.1", cfg.DBHost)
		assert.Equal(t, uint16(5432), cfg.DBPort)
		assert.Equal(t, "content", cfg.DBSchema)
		assert.Equal(t, "db.sqlite", cfg.SQLitePath)
		assert.Equal(t, byte(0x16), cfg.CopyQuote)
		assert.Equal(t, 400, cfg.VerifyWindow)
		assert.Equal(t, time.UTC, cfg.SourceLocation)
	})

	t.Run("should read overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_NAME", "movies")
		t.Setenv("DB_PORT", "6543")
		t.Setenv("COPY_QUOTE_CHAR", "0x1f")
		t.Setenv("SOURCE_TIMEZONE", "Europe/Moscow")
		t.Setenv("VERIFY_WINDOW", "50")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "movies", cfg.DBName)
		assert.Equal(t, uint16(6543), cfg.DBPort)
		assert.Equal(t, byte(0x1f), cfg.CopyQuote)
		assert.Equal(t, "Europe/Moscow", cfg.SourceLocation.String())
		assert.Equal(t, 50, cfg.VerifyWindow)

		pg := cfg.Postgres()
		assert.Equal(t, "movies", pg.Database)
		assert.Equal(t, uint16(6543), pg.Port)
	})

	t.Run("should reject a bad port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_PORT", "http")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "DB_PORT")
	})

	t.Run("should reject a bad quote", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("COPY_QUOTE_CHAR", "ab")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "COPY_QUOTE_CHAR")
	})

	t.Run("should reject a quote that occurs in unquoted fields", func(t *testing.T) {
		for _, v := range []string{"-", ":", ".", "+", "7", "T", "e"} {
			clearEnv(t)
			t.Setenv("COPY_QUOTE_CHAR", v)
			_, err := LoadConfig()
			assert.ErrorContains(t, err, "COPY_QUOTE_CHAR", "quote %q", v)
		}
	})

	t.Run("should reject an unknown zone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOURCE_TIMEZONE", "Mars/Olympus")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "SOURCE_TIMEZONE")
	})
}

func TestLoadMapping(t *testing.T) {
	t.Run("should return nil for an empty path", func(t *testing.T) {
		m, err := LoadMapping("")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("should apply table overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mapping.json")
		body := `{"tables": {"film_work": {"source": "movies", "target": "film_work_v2"}}}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		m, err := LoadMapping(path)
		require.NoError(t, err)

		bindings := m.Apply(models.DefaultBindings())
		assert.Equal(t, "movies", bindings[2].SourceTable)
		assert.Equal(t, "film_work_v2", bindings[2].TargetTable)
		assert.Equal(t, "genre", bindings[0].SourceTable)
	})

	t.Run("should reject unknown entities", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mapping.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tables": {"actor": {}}}`), 0o644))

		_, err := LoadMapping(path)
		assert.ErrorContains(t, err, "unknown entity")
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		_, err := LoadMapping(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "failed to read mapping file")
	})
}

// Package config loads the migration settings from the environment (which
// main populates from an optional .env file) and the optional table
// override file.
package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/BartekS5/movies-etl/internal/etl"
	"github.com/BartekS5/movies-etl/pkg/database"
)

// Config holds all configuration for the migration and verification runs.
type Config struct {
	DBName     string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     uint16
	DBSchema   string
	DBSSLMode  string

	SQLitePath string

	// SourceLocation is the zone assumed for source timestamps that carry
	// no offset. The true zone of the legacy data is unknown; UTC is the
	// default approximation.
	SourceLocation *time.Location

	CopyQuote    byte
	VerifyWindow int

	LogLevel string
	LogFile  string
	LogMode  string
}

// LoadConfig reads every recognized variable, applying defaults, and fails
// on the first malformed value.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBName:     getenv("DB_NAME", "movies_database"),
		DBUser:     getenv("DB_USER", "app"),
		DBPassword: getenv("DB_PASSWORD", ""),
		DBHost:     getenv("DB_HOST", "127.0.0.1"),
		DBSchema:   getenv("DB_SCHEMA", "content"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),
		SQLitePath: getenv("SQL_LITE_DB_PATH", "db.sqlite"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogFile:    getenv("LOG_FILE", ""),
		LogMode:    getenv("LOG_MODE", "dev"),
	}

	var err error
	if cfg.DBPort, err = getPort("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.VerifyWindow, err = getPositiveInt("VERIFY_WINDOW", 400); err != nil {
		return nil, err
	}
	if cfg.CopyQuote, err = getByte("COPY_QUOTE_CHAR", 0x16); err != nil {
		return nil, err
	}
	if err := cfg.CopyFormat().Validate(); err != nil {
		return nil, fmt.Errorf("COPY_QUOTE_CHAR: %w", err)
	}

	tz := getenv("SOURCE_TIMEZONE", "UTC")
	if cfg.SourceLocation, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("SOURCE_TIMEZONE %q: %w", tz, err)
	}

	if cfg.DBName == "" {
		return nil, errors.New("DB_NAME environment variable not set")
	}
	if cfg.SQLitePath == "" {
		return nil, errors.New("SQL_LITE_DB_PATH environment variable not set")
	}

	return cfg, nil
}

// CopyFormat returns the bulk-line format with the configured quote byte.
func (c *Config) CopyFormat() etl.Format {
	f := etl.DefaultFormat
	f.Quote = c.CopyQuote
	return f
}

// Postgres returns the target connection settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Database: c.DBName,
		Schema:   c.DBSchema,
		SSLMode:  c.DBSSLMode,
	}
}

package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// PostgresConfig describes the target database.
type PostgresConfig struct {
	Host     string
	Port     uint16
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

// DSN renders the settings as a postgres URL. The session time zone is
// pinned to UTC so timestamps read back as text carry a +00 offset.
func (c PostgresConfig) DSN() string {
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	q.Set("timezone", "UTC")
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(int(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SQLiteDSN renders path as a read-only SQLite URI filename. The path is
// percent-encoded so '?', '#' and '%' stay part of the file name.
func SQLiteDSN(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
}

// ConnectSQLite opens the source file read-only. A missing file is an error
// rather than a freshly created empty database.
func ConnectSQLite(path string) (*sqlx.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error opening SQLite database: %w", err)
	}

	db, err := sqlx.Open("sqlite3", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("error opening SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to SQLite database (ping failed): %w", err)
	}

	return db, nil
}

// ConnectPostgres opens the single connection the migration transaction
// runs on.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*pgx.Conn, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error parsing PostgreSQL config: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := pgx.ConnectConfig(connectCtx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := conn.Ping(pingCtx); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("error connecting to PostgreSQL (ping failed): %w", err)
	}

	return conn, nil
}

// OpenPostgresSQL opens the target through database/sql for the paged
// verification reads.
func OpenPostgresSQL(cfg PostgresConfig) (*sqlx.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error parsing PostgreSQL config: %w", err)
	}

	db := sqlx.NewDb(stdlib.OpenDB(*connCfg), "pgx")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to PostgreSQL (ping failed): %w", err)
	}

	return db, nil
}

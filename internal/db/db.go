package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrCacheUnavailable is returned when the cache store cannot be opened or
// prepared. Callers fall back to an in-memory store.
var ErrCacheUnavailable = errors.New("cache store unavailable")

const (
	createSQLiteTableSQL = `
CREATE TABLE IF NOT EXISTS rom_collection (
	rom_id INTEGER PRIMARY KEY ASC,
	filename TEXT NOT NULL,
	md5 TEXT NOT NULL,
	internal_name TEXT,
	zip_file TEXT,
	size INTEGER
);`

	createPostgresTableSQL = `
CREATE TABLE IF NOT EXISTS rom_collection (
	rom_id BIGSERIAL PRIMARY KEY,
	filename TEXT NOT NULL,
	md5 TEXT NOT NULL,
	internal_name TEXT,
	zip_file TEXT,
	size BIGINT
);`

	createIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_rom_collection_md5
ON rom_collection(md5);`
)

// DB wraps a sql.DB together with the dialect it speaks.
type DB struct {
	*sql.DB
	driver string
}

var defaultDB *DB

// SetDefault assigns the global database instance.
func SetDefault(db *DB) {
	defaultDB = db
}

// Default returns the configured global database instance.
func Default() *DB {
	return defaultDB
}

// SupportedDriver reports whether driver can back the cache store.
func SupportedDriver(driver string) bool {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return true
	}
	return false
}

// Open connects to the cache store and ensures its schema. Every failure is
// reported as ErrCacheUnavailable.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if !SupportedDriver(driver) {
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrCacheUnavailable, driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: empty dsn", ErrCacheUnavailable)
	}
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(sqlitePath(dsn)), 0o755); err != nil {
			return nil, fmt.Errorf("%w: ensure dir for %s: %v", ErrCacheUnavailable, dsn, err)
		}
	}
	sdb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrCacheUnavailable, driver, err)
	}
	if driver == DriverSQLite {
		sdb.SetMaxOpenConns(1)
	}
	if err := sdb.PingContext(ctx); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrCacheUnavailable, driver, err)
	}
	d := &DB{DB: sdb, driver: driver}
	if err := EnsureSchema(ctx, d); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return d, nil
}

func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// Driver returns the dialect name.
func (d *DB) Driver() string {
	return d.driver
}

// EnsureSchema initialises required tables and indexes.
func EnsureSchema(ctx context.Context, d *DB) error {
	table := createSQLiteTableSQL
	if d.driver == DriverPostgres {
		table = createPostgresTableSQL
	}
	if _, err := d.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("create rom_collection: %w", err)
	}
	if _, err := d.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create rom_collection index: %w", err)
	}
	return nil
}

// Rebind rewrites builder output (backtick identifiers, ? placeholders) for
// the current dialect.
func (d *DB) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		switch r {
		case '?':
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		case '`':
			sb.WriteByte('"')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// OnTransaction runs fn inside a transaction. The transaction is rolled back
// when fn fails or ctx is done before commit.
func (d *DB) OnTransaction(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

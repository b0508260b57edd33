// Package db provides the relational store for the concept dictionary.
//
// The store is a plain database/sql handle over one of two drivers:
//
//   - sqlite3: embedded SQLite (ncruces/go-sqlite3, WASM build, no cgo) with
//     WAL enabled. This is the default and what the tests use.
//   - pgx: PostgreSQL through the pgx stdlib adapter.
//
// Queries are written once with ? placeholders and rebound to $n for pgx.
// Every natural key carries a UNIQUE index, so a concurrent writer that slips
// past a lookup fails loudly instead of inserting a duplicate.
//
// Finders return (nil, nil) when no row matches. Inserters assign the
// generated primary key to the passed entity.
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
	"time"

	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// DB wraps the database connection of the dictionary store.
type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to the store using driver and dsn. For sqlite3 the dsn may
// be a bare file path; the parent directory is created when missing.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	store, err := db.Open("sqlite3", ".omrs/dictionary.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQLite(dsn string) (*DB, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Per-connection pragmas go in the DSN so every pooled connection gets them.
	connStr := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open(DriverSQLite, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, driver: DriverSQLite}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return db, nil
}

func openPostgres(dsn string) (*DB, error) {
	conn, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return &DB{conn: conn, driver: DriverPostgres}, nil
}

// Driver returns the name of the driver the store was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection. SQLite stores are checkpointed first.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if db.driver == DriverSQLite {
		if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
		}
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the dictionary tables if they don't exist.
// This is idempotent.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the dictionary tables with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	idType := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == DriverPostgres {
		idType = "BIGSERIAL PRIMARY KEY"
	}

	if _, err := db.conn.ExecContext(ctx, strings.ReplaceAll(schemaDDL, "{{id}}", idType)); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Counts returns the number of rows per entity kind.
func (db *DB) Counts(ctx context.Context) (*model.Counts, error) {
	var c model.Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"concept", &c.Concepts},
		{"concept_name", &c.Names},
		{"concept_description", &c.Descriptions},
		{"concept_numeric", &c.Numerics},
		{"concept_reference_source", &c.Sources},
		{"concept_reference_term", &c.Terms},
		{"concept_reference_map", &c.ReferenceMaps},
		{"concept_answer", &c.Answers},
		{"concept_set", &c.SetMembers},
	}

	for _, t := range targets {
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return &c, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) exec(ctx context.Context, query string, args ...any) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(query), args...)
	return err
}

// insertReturning runs an INSERT and returns the generated key column.
func (db *DB) insertReturning(ctx context.Context, query, keyColumn string, args ...any) (int64, error) {
	var id int64
	if err := db.queryRow(ctx, query+" RETURNING "+keyColumn, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func boolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Bool
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

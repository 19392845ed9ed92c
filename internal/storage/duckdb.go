// Package storage owns the embedded DuckDB database: schema migrations, CSV
// ingestion, read-only query execution, and schema introspection.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/commercelens/commercelens/internal/config"
)

// Repository wraps a DuckDB database file with connection pooling.
type Repository struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// New opens (creating if necessary) the DuckDB database at the configured path.
func New(cfg config.DatabaseConfig) (*Repository, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
		db.SetConnMaxLifetime(lifetime)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	queryTimeout := 30 * time.Second
	if d, err := time.ParseDuration(cfg.QueryTimeout); err == nil {
		queryTimeout = d
	}

	return &Repository{
		db:           db,
		path:         cfg.Path,
		queryTimeout: queryTimeout,
	}, nil
}

// Initialize applies pending schema migrations.
func (r *Repository) Initialize(ctx context.Context) error {
	return NewMigrationManager(r.db).MigrateUp(ctx)
}

// DB exposes the underlying handle for statement preparation.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Reset deletes all dataset rows so the archive can be re-imported. Dependent
// tables are cleared before the tables they reference.
func (r *Repository) Reset(ctx context.Context) error {
	ordered := []string{
		"seller_products", "reviews", "payments", "order_items",
		"orders", "products", "sellers", "customers",
		"geolocation", "category_translations",
	}

	for _, table := range ordered {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	return nil
}

// TableCount is a table name with its row count, in dataset enumeration order.
type TableCount struct {
	Table string
	Rows  int64
}

// TableCounts returns per-table row counts for all dataset tables.
func (r *Repository) TableCounts(ctx context.Context) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(DatasetTables))

	for _, table := range DatasetTables {
		var count int64

		query := "SELECT COUNT(*) FROM " + table
		if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count table %s: %w", table, err)
		}

		counts = append(counts, TableCount{Table: table, Rows: count})
	}

	return counts, nil
}

// Stats describes the overall database state for the status command.
type Stats struct {
	Tables         []TableCount
	TotalRows      int64
	DatabaseSizeMB float64
}

// GetStats collects row counts and the on-disk database size.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	counts, err := r.TableCounts(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Tables: counts}
	for _, tc := range counts {
		stats.TotalRows += tc.Rows
	}

	if info, err := os.Stat(r.path); err == nil {
		stats.DatabaseSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	return stats, nil
}

// ExecuteQuery runs a read-only SQL query under the configured timeout and
// returns all rows rendered as strings.
func (r *Repository) ExecuteQuery(ctx context.Context, query string) (*ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanResultSet(rows)
}

// scanResultSet materializes sql.Rows into a string-valued ResultSet.
func scanResultSet(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	rs := &ResultSet{Columns: columns}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}

		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return rs, nil
}

// formatValue renders a scanned database value for display.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case float64:
		return fmt.Sprintf("%.2f", val)
	case float32:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

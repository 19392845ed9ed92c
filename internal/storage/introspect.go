package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/commercelens/commercelens/internal/schema"
)

// Introspect takes a schema snapshot of the main catalog: every user table in
// alphabetical order, its columns in declaration order, and up to
// samplesPerTable example rows. The migration bookkeeping table is excluded.
func (r *Repository) Introspect(ctx context.Context, samplesPerTable int) (schema.Descriptor, error) {
	var desc schema.Descriptor

	tables, err := r.listTables(ctx)
	if err != nil {
		return desc, err
	}

	for _, name := range tables {
		columns, err := r.listColumns(ctx, name)
		if err != nil {
			return desc, err
		}

		table := schema.Table{Name: name, Columns: columns}

		if samplesPerTable > 0 {
			samples, err := r.sampleRows(ctx, name, len(columns), samplesPerTable)
			if err != nil {
				return desc, err
			}

			table.Samples = samples
		}

		desc.Tables = append(desc.Tables, table)
	}

	return desc, nil
}

// listTables returns user table names in alphabetical order.
func (r *Repository) listTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main'
		  AND table_type = 'BASE TABLE'
		  AND table_name <> 'schema_migrations'
		ORDER BY table_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// listColumns returns a table's columns in declaration order.
func (r *Repository) listColumns(ctx context.Context, table string) ([]schema.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := r.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []schema.Column

	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan column for %s: %w", table, err)
		}

		columns = append(columns, schema.Column{
			Name:     name,
			Type:     mapColumnType(dataType),
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}

	return columns, rows.Err()
}

// sampleRows reads up to limit rows from a table, each value rendered as a
// display string.
func (r *Repository) sampleRows(
	ctx context.Context,
	table string,
	columnCount, limit int,
) ([][]string, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", table, err)
	}
	defer rows.Close()

	var samples [][]string

	for rows.Next() {
		values := make([]interface{}, columnCount)
		valuePtrs := make([]interface{}, columnCount)

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan sample row from %s: %w", table, err)
		}

		row := make([]string, columnCount)
		for i, v := range values {
			row[i] = formatValue(v)
		}

		samples = append(samples, row)
	}

	return samples, rows.Err()
}

// mapColumnType collapses DuckDB type names into the small semantic set the
// prompt builder understands.
func mapColumnType(dataType string) schema.ColumnType {
	upper := strings.ToUpper(dataType)

	switch {
	case strings.Contains(upper, "TINYINT"),
		strings.Contains(upper, "SMALLINT"),
		strings.Contains(upper, "BIGINT"),
		strings.Contains(upper, "HUGEINT"),
		strings.Contains(upper, "INTEGER"),
		upper == "INT":
		return schema.TypeInteger
	case strings.Contains(upper, "DOUBLE"),
		strings.Contains(upper, "FLOAT"),
		strings.Contains(upper, "REAL"),
		strings.Contains(upper, "DECIMAL"),
		strings.Contains(upper, "NUMERIC"):
		return schema.TypeFloat
	case strings.Contains(upper, "TIMESTAMP"),
		strings.Contains(upper, "DATE"),
		strings.Contains(upper, "TIME"):
		return schema.TypeDateTime
	case strings.Contains(upper, "BOOL"):
		return schema.TypeBoolean
	default:
		return schema.TypeText
	}
}

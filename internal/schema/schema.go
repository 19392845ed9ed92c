// Package schema defines the database-agnostic schema snapshot consumed by the
// prompt builder. A Descriptor is an immutable snapshot of tables, columns, and
// optional sample rows, taken once per prompt build. Table and column order is
// the enumeration order of the source database and is preserved everywhere.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ColumnType is the semantic type tag of a column. Database-specific type
// names are collapsed into this small set before prompt construction.
type ColumnType string

const (
	TypeInteger  ColumnType = "integer"
	TypeFloat    ColumnType = "float"
	TypeText     ColumnType = "text"
	TypeDateTime ColumnType = "datetime"
	TypeBoolean  ColumnType = "boolean"
)

// Column describes a single column. Name is unique within its table.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Table describes a table, its ordered columns, and optional sample rows.
// Each sample row is aligned to the column order.
type Table struct {
	Name    string
	Columns []Column
	Samples [][]string
}

// Descriptor is an ordered snapshot of a database schema.
type Descriptor struct {
	Tables []Table
}

// Fingerprint returns a stable hash of the schema shape: table names, column
// names, types, and nullability. Sample row values do not participate, so
// data-only changes produce the same fingerprint.
func (d Descriptor) Fingerprint() string {
	h := sha256.New()

	for _, t := range d.Tables {
		h.Write([]byte(t.Name))
		h.Write([]byte{0})

		for _, c := range t.Columns {
			h.Write([]byte(c.Name))
			h.Write([]byte{0x1f})
			h.Write([]byte(c.Type))
			h.Write([]byte{0x1f})

			if c.Nullable {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}

		h.Write([]byte{0x1e})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// TableNames returns the table names in enumeration order.
func (d Descriptor) TableNames() []string {
	names := make([]string, len(d.Tables))
	for i, t := range d.Tables {
		names[i] = t.Name
	}

	return names
}

// HasTable reports whether the descriptor contains the named table.
func (d Descriptor) HasTable(name string) bool {
	for _, t := range d.Tables {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}

	return false
}

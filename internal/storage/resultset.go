package storage

import (
	"fmt"
	"strings"
)

// ResultSet is a fully materialized query result with every value rendered as
// a display string.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the result contains no rows.
func (rs *ResultSet) Empty() bool {
	return len(rs.Rows) == 0
}

// Format renders the result as an aligned text table.
func (rs *ResultSet) Format() string {
	if len(rs.Columns) == 0 {
		return "(no results)"
	}

	widths := make([]int, len(rs.Columns))
	for i, col := range rs.Columns {
		widths[i] = len(col)
	}

	for _, row := range rs.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}

			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
		}

		sb.WriteString("\n")
	}

	writeRow(rs.Columns)

	separators := make([]string, len(rs.Columns))
	for i := range separators {
		separators[i] = strings.Repeat("-", widths[i])
	}

	writeRow(separators)

	for _, row := range rs.Rows {
		writeRow(row)
	}

	sb.WriteString(fmt.Sprintf("(%d rows)\n", len(rs.Rows)))

	return sb.String()
}

// Markdown renders the result as a GitHub-style markdown table, used when the
// rows are handed to a language model for summarization.
func (rs *ResultSet) Markdown() string {
	if len(rs.Columns) == 0 {
		return "(no results)"
	}

	var sb strings.Builder

	sb.WriteString("| ")
	sb.WriteString(strings.Join(rs.Columns, " | "))
	sb.WriteString(" |\n|")

	for range rs.Columns {
		sb.WriteString(" --- |")
	}

	sb.WriteString("\n")

	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "|", "\\|")
		}

		sb.WriteString("| ")
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString(" |\n")
	}

	return sb.String()
}

// Truncate returns a copy limited to n rows. The original is returned when it
// already fits.
func (rs *ResultSet) Truncate(n int) *ResultSet {
	if len(rs.Rows) <= n {
		return rs
	}

	return &ResultSet{Columns: rs.Columns, Rows: rs.Rows[:n]}
}

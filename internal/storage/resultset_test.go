package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultSetFormat(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"state", "orders"},
		Rows: [][]string{
			{"SP", "41746"},
			{"RJ", "12852"},
		},
	}

	out := rs.Format()

	assert.Contains(t, out, "state")
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "SP")
	assert.Contains(t, out, "(2 rows)")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// header, separator, two data rows, row count
	assert.Len(t, lines, 5)
}

func TestResultSetFormatEmpty(t *testing.T) {
	rs := &ResultSet{}
	assert.Equal(t, "(no results)", rs.Format())

	withColumns := &ResultSet{Columns: []string{"a"}}
	assert.Contains(t, withColumns.Format(), "(0 rows)")
}

func TestResultSetMarkdown(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"category", "revenue"},
		Rows: [][]string{
			{"beleza_saude", "1258681.34"},
			{"cama|mesa", "1036988.68"},
		},
	}

	out := rs.Markdown()

	assert.Contains(t, out, "| category | revenue |")
	assert.Contains(t, out, "| --- | --- |")
	assert.Contains(t, out, "cama\\|mesa")
}

func TestResultSetTruncate(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"n"},
		Rows:    [][]string{{"1"}, {"2"}, {"3"}},
	}

	truncated := rs.Truncate(2)
	assert.Len(t, truncated.Rows, 2)

	same := rs.Truncate(10)
	assert.Len(t, same.Rows, 3)
}

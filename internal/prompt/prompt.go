// Package prompt turns a schema snapshot into a bounded-size natural-language
// system prompt for SQL question answering. Build is a pure function: the same
// descriptor and config always produce byte-identical text and fingerprint.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/commercelens/commercelens/internal/schema"
)

// Sentinel errors surfaced to callers. Both are matchable with errors.Is.
var (
	// ErrConfig indicates an unusable prompt configuration.
	ErrConfig = errors.New("invalid prompt configuration")

	// ErrBudget indicates the character budget cannot accommodate any schema
	// content. It is a configuration error.
	ErrBudget = fmt.Errorf("%w: max chars budget is smaller than the preamble", ErrConfig)

	// ErrEmptySchema indicates the descriptor contains no tables.
	ErrEmptySchema = errors.New("schema has no tables to describe")
)

// Config controls prompt construction.
type Config struct {
	// MaxChars is the hard upper bound on the output length in bytes.
	MaxChars int

	// SampleRowsPerTable is how many example rows to embed per table.
	SampleRowsPerTable int

	// IncludeTypes controls whether column type and nullability annotations
	// are emitted.
	IncludeTypes bool

	// Language selects the connective phrasing: "en" or "fa". Empty means
	// English. Structure is identical in both.
	Language string
}

// DefaultConfig returns the standard prompt configuration.
func DefaultConfig() Config {
	return Config{
		MaxChars:           4000,
		SampleRowsPerTable: 3,
		IncludeTypes:       true,
		Language:           LanguageEnglish,
	}
}

// Artifact is the immutable result of a prompt build. It is superseded, never
// edited, when the schema changes.
type Artifact struct {
	// Text is the complete system prompt. len(Text) <= Config.MaxChars.
	Text string

	// Fingerprint is the stable hash of the untruncated schema shape.
	Fingerprint string

	// GeneratedAt is the build timestamp.
	GeneratedAt time.Time

	// Language is the phrasing language the artifact was built with.
	Language string

	// TablesOmitted counts table blocks removed to satisfy the budget.
	TablesOmitted int

	// SampleRowsDropped counts sample rows removed to satisfy the budget.
	SampleRowsDropped int
}

// Build constructs the system prompt for the given schema snapshot.
//
// Table blocks are emitted in descriptor order: a header, one line per column,
// then up to SampleRowsPerTable sample rows. If the naive serialization
// exceeds MaxChars, sample rows are dropped first (one at a time, from the
// table currently showing the most rows), then whole table blocks are removed
// in reverse enumeration order and an omission marker is appended. A table is
// either fully present in its structural form or fully absent; truncation
// never splits a header from its column list.
func Build(desc schema.Descriptor, cfg Config) (*Artifact, error) {
	phr, err := phrasesFor(cfg.Language)
	if err != nil {
		return nil, err
	}

	if cfg.SampleRowsPerTable < 0 {
		return nil, fmt.Errorf("%w: sample rows per table must not be negative", ErrConfig)
	}

	if len(desc.Tables) == 0 {
		return nil, ErrEmptySchema
	}

	if cfg.MaxChars < len(phr.preamble) {
		return nil, ErrBudget
	}

	// Per-table count of sample rows still shown. Reducing a count drops
	// that table's trailing rows, keeping the rest deterministic.
	counts := make([]int, len(desc.Tables))
	for i, t := range desc.Tables {
		counts[i] = min(cfg.SampleRowsPerTable, len(t.Samples))
	}

	included := len(desc.Tables)
	droppedRows := 0

	for {
		text := render(desc, cfg, phr, counts, included)
		if len(text) <= cfg.MaxChars {
			return &Artifact{
				Text:              text,
				Fingerprint:       desc.Fingerprint(),
				GeneratedAt:       time.Now().UTC(),
				Language:          phr.tag,
				TablesOmitted:     len(desc.Tables) - included,
				SampleRowsDropped: droppedRows,
			}, nil
		}

		// Samples go first. Pick the table currently showing the most rows;
		// ties resolve to the earliest table, which keeps the result stable.
		if idx := fullestTable(counts[:included]); idx >= 0 {
			counts[idx]--
			droppedRows++

			continue
		}

		// All samples are gone: remove whole table blocks from the end.
		if included > 0 {
			included--
			continue
		}

		// Even the bare preamble plus marker is over budget. The preamble
		// alone is guaranteed to fit by the check above.
		return &Artifact{
			Text:              phr.preamble,
			Fingerprint:       desc.Fingerprint(),
			GeneratedAt:       time.Now().UTC(),
			Language:          phr.tag,
			TablesOmitted:     len(desc.Tables),
			SampleRowsDropped: droppedRows,
		}, nil
	}
}

// fullestTable returns the index of the table with the most sample rows still
// shown, or -1 when none remain.
func fullestTable(counts []int) int {
	best := -1
	bestCount := 0

	for i, c := range counts {
		if c > bestCount {
			best = i
			bestCount = c
		}
	}

	return best
}

// render serializes the preamble, the first included table blocks, and an
// omission marker when tables were removed.
func render(
	desc schema.Descriptor,
	cfg Config,
	phr phrases,
	counts []int,
	included int,
) string {
	parts := make([]string, 0, included+2)
	parts = append(parts, phr.preamble)

	for i := 0; i < included; i++ {
		parts = append(parts, renderTable(desc.Tables[i], cfg, phr, counts[i]))
	}

	if omitted := len(desc.Tables) - included; omitted > 0 {
		parts = append(parts, fmt.Sprintf(phr.omitted, omitted))
	}

	return strings.Join(parts, "\n\n")
}

// renderTable serializes one table block: header, columns, then sampleCount
// sample rows.
func renderTable(t schema.Table, cfg Config, phr phrases, sampleCount int) string {
	var sb strings.Builder

	sb.WriteString(phr.tableLabel)
	sb.WriteString(" ")
	sb.WriteString(t.Name)
	sb.WriteString("\n")
	sb.WriteString(phr.columnsLabel)

	for _, c := range t.Columns {
		sb.WriteString("\n  - ")
		sb.WriteString(c.Name)

		if cfg.IncludeTypes {
			sb.WriteString(" (")
			sb.WriteString(string(c.Type))

			if c.Nullable {
				sb.WriteString(", nullable")
			} else {
				sb.WriteString(", not null")
			}

			sb.WriteString(")")
		}
	}

	if sampleCount > 0 {
		sb.WriteString("\n")
		sb.WriteString(phr.samplesLabel)

		for _, row := range t.Samples[:sampleCount] {
			sb.WriteString("\n  ")
			sb.WriteString(renderSampleRow(row))
		}
	}

	return sb.String()
}

// renderSampleRow joins row values with a delimiter, flattening any embedded
// newlines so a sample always occupies a single line.
func renderSampleRow(row []string) string {
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = strings.Join(strings.Fields(v), " ")
		if cells[i] == "" {
			cells[i] = "NULL"
		}
	}

	return strings.Join(cells, " | ")
}

package prompt

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/commercelens/commercelens/internal/schema"
)

func twoTableSchema() schema.Descriptor {
	return schema.Descriptor{
		Tables: []schema.Table{
			{
				Name: "orders",
				Columns: []schema.Column{
					{Name: "id", Type: schema.TypeInteger, Nullable: false},
					{Name: "total", Type: schema.TypeFloat, Nullable: true},
				},
				Samples: [][]string{
					{"1", "59.90"},
					{"2", "130.00"},
				},
			},
			{
				Name: "customers",
				Columns: []schema.Column{
					{Name: "id", Type: schema.TypeInteger, Nullable: false},
					{Name: "name", Type: schema.TypeText, Nullable: true},
				},
				Samples: [][]string{
					{"1", "Ana"},
				},
			},
		},
	}
}

// wideSchema builds n tables with enough content to overflow small budgets.
func wideSchema(n int) schema.Descriptor {
	var desc schema.Descriptor

	for i := 0; i < n; i++ {
		t := schema.Table{Name: fmt.Sprintf("table_%02d", i)}
		for j := 0; j < 6; j++ {
			t.Columns = append(t.Columns, schema.Column{
				Name:     fmt.Sprintf("column_with_a_long_name_%02d", j),
				Type:     schema.TypeText,
				Nullable: j%2 == 0,
			})
		}

		for k := 0; k < 3; k++ {
			t.Samples = append(t.Samples, []string{
				"value-a", "value-b", "value-c", "value-d", "value-e", "value-f",
			})
		}

		desc.Tables = append(desc.Tables, t)
	}

	return desc
}

func TestBuildScenario(t *testing.T) {
	cfg := Config{MaxChars: 1000, SampleRowsPerTable: 1, IncludeTypes: true, Language: "en"}

	artifact, err := Build(twoTableSchema(), cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(artifact.Text) > 1000 {
		t.Errorf("Expected text length <= 1000, got %d", len(artifact.Text))
	}

	for _, want := range []string{
		"Table: orders",
		"Table: customers",
		"  - id (integer, not null)",
		"  - total (float, nullable)",
		"  - name (text, nullable)",
	} {
		if !strings.Contains(artifact.Text, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}

	// Exactly one sample row per table under cfg.SampleRowsPerTable = 1.
	if got := strings.Count(artifact.Text, "Sample rows:"); got != 2 {
		t.Errorf("Expected 2 sample sections, got %d", got)
	}

	if !strings.Contains(artifact.Text, "  1 | 59.90") {
		t.Error("Expected first orders sample row in output")
	}

	if strings.Contains(artifact.Text, "130.00") {
		t.Error("Expected second orders sample row to be excluded")
	}

	if artifact.TablesOmitted != 0 || artifact.SampleRowsDropped != 0 {
		t.Errorf("Expected no truncation, got omitted=%d dropped=%d",
			artifact.TablesOmitted, artifact.SampleRowsDropped)
	}
}

func TestBuildDeterminism(t *testing.T) {
	desc := twoTableSchema()
	cfg := DefaultConfig()

	first, err := Build(desc, cfg)
	if err != nil {
		t.Fatalf("First build failed: %v", err)
	}

	second, err := Build(desc, cfg)
	if err != nil {
		t.Fatalf("Second build failed: %v", err)
	}

	if first.Text != second.Text {
		t.Error("Expected byte-identical text for identical inputs")
	}

	if first.Fingerprint != second.Fingerprint {
		t.Error("Expected identical fingerprints for identical inputs")
	}
}

func TestBuildLengthBound(t *testing.T) {
	desc := wideSchema(10)

	preambleLen, err := PreambleLength("en")
	if err != nil {
		t.Fatalf("PreambleLength failed: %v", err)
	}

	for _, maxChars := range []int{
		preambleLen, preambleLen + 1, preambleLen + 50, 500, 1000, 2000, 4000, 100000,
	} {
		if maxChars < preambleLen {
			continue
		}

		cfg := Config{MaxChars: maxChars, SampleRowsPerTable: 3, IncludeTypes: true}

		artifact, err := Build(desc, cfg)
		if err != nil {
			t.Fatalf("Build failed at max_chars=%d: %v", maxChars, err)
		}

		if len(artifact.Text) > maxChars {
			t.Errorf("max_chars=%d: got length %d", maxChars, len(artifact.Text))
		}
	}
}

func TestBuildOrderPreserved(t *testing.T) {
	artifact, err := Build(twoTableSchema(), DefaultConfig())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ordersIdx := strings.Index(artifact.Text, "Table: orders")
	customersIdx := strings.Index(artifact.Text, "Table: customers")

	if ordersIdx < 0 || customersIdx < 0 {
		t.Fatal("Expected both table headers in output")
	}

	if ordersIdx > customersIdx {
		t.Error("Expected tables in descriptor enumeration order")
	}

	idIdx := strings.Index(artifact.Text, "  - id")
	totalIdx := strings.Index(artifact.Text, "  - total")

	if idIdx > totalIdx {
		t.Error("Expected columns in descriptor enumeration order")
	}
}

func TestFingerprint(t *testing.T) {
	base := twoTableSchema()

	baseline, err := Build(base, DefaultConfig())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	t.Run("SampleValuesDoNotAffectFingerprint", func(t *testing.T) {
		changed := twoTableSchema()
		changed.Tables[0].Samples = [][]string{{"999", "1.23"}}

		artifact, err := Build(changed, DefaultConfig())
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if artifact.Fingerprint != baseline.Fingerprint {
			t.Error("Expected fingerprint to ignore sample row values")
		}
	})

	t.Run("ColumnRenameChangesFingerprint", func(t *testing.T) {
		changed := twoTableSchema()
		changed.Tables[1].Columns[1].Name = "full_name"

		artifact, err := Build(changed, DefaultConfig())
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if artifact.Fingerprint == baseline.Fingerprint {
			t.Error("Expected fingerprint to change with a column rename")
		}
	})

	t.Run("TypeChangeChangesFingerprint", func(t *testing.T) {
		changed := twoTableSchema()
		changed.Tables[0].Columns[1].Type = schema.TypeText

		artifact, err := Build(changed, DefaultConfig())
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if artifact.Fingerprint == baseline.Fingerprint {
			t.Error("Expected fingerprint to change with a column type change")
		}
	})

	t.Run("TruncationDoesNotAffectFingerprint", func(t *testing.T) {
		desc := wideSchema(10)

		full, err := Build(desc, Config{MaxChars: 100000, SampleRowsPerTable: 3, IncludeTypes: true})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		truncated, err := Build(desc, Config{MaxChars: 800, SampleRowsPerTable: 3, IncludeTypes: true})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if truncated.TablesOmitted == 0 {
			t.Fatal("Expected test budget to force table omission")
		}

		if full.Fingerprint != truncated.Fingerprint {
			t.Error("Expected fingerprint over the untruncated schema shape")
		}
	})
}

func TestBuildTruncation(t *testing.T) {
	desc := wideSchema(10)

	t.Run("SampleRowsDroppedBeforeTables", func(t *testing.T) {
		// Find a budget that forces sample dropping but keeps all tables by
		// measuring the no-samples rendering first.
		bare, err := Build(desc, Config{MaxChars: 100000, SampleRowsPerTable: 0, IncludeTypes: true})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		cfg := Config{MaxChars: len(bare.Text) + 100, SampleRowsPerTable: 3, IncludeTypes: true}

		artifact, err := Build(desc, cfg)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if artifact.TablesOmitted != 0 {
			t.Errorf("Expected all tables retained, %d omitted", artifact.TablesOmitted)
		}

		if artifact.SampleRowsDropped == 0 {
			t.Error("Expected sample rows to be dropped to satisfy the budget")
		}

		for i := 0; i < 10; i++ {
			header := fmt.Sprintf("Table: table_%02d", i)
			if !strings.Contains(artifact.Text, header) {
				t.Errorf("Expected %q to be present", header)
			}
		}
	})

	t.Run("NoPartialTableBlocks", func(t *testing.T) {
		artifact, err := Build(desc, Config{MaxChars: 1200, SampleRowsPerTable: 3, IncludeTypes: true})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if artifact.TablesOmitted == 0 {
			t.Fatal("Expected test budget to force table omission")
		}

		// Every table header present must carry its complete column list.
		for i := 0; i < 10; i++ {
			header := fmt.Sprintf("Table: table_%02d", i)
			if !strings.Contains(artifact.Text, header) {
				continue
			}

			for j := 0; j < 6; j++ {
				col := fmt.Sprintf("column_with_a_long_name_%02d", j)
				if !strings.Contains(artifact.Text, col) {
					t.Errorf("Table %q is present but column %q is missing", header, col)
				}
			}
		}

		marker := fmt.Sprintf("[schema truncated: %d tables omitted]", artifact.TablesOmitted)
		if !strings.Contains(artifact.Text, marker) {
			t.Errorf("Expected omission marker %q", marker)
		}
	})

	t.Run("ReverseEnumerationOrderRemoval", func(t *testing.T) {
		artifact, err := Build(desc, Config{MaxChars: 1200, SampleRowsPerTable: 0, IncludeTypes: true})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if artifact.TablesOmitted == 0 {
			t.Fatal("Expected test budget to force table omission")
		}

		kept := 10 - artifact.TablesOmitted
		for i := 0; i < 10; i++ {
			header := fmt.Sprintf("Table: table_%02d", i)
			present := strings.Contains(artifact.Text, header)

			if i < kept && !present {
				t.Errorf("Expected leading table %q to be kept", header)
			}

			if i >= kept && present {
				t.Errorf("Expected trailing table %q to be omitted", header)
			}
		}
	})
}

func TestBuildErrors(t *testing.T) {
	t.Run("EmptySchema", func(t *testing.T) {
		_, err := Build(schema.Descriptor{}, DefaultConfig())
		if !errors.Is(err, ErrEmptySchema) {
			t.Errorf("Expected ErrEmptySchema, got %v", err)
		}
	})

	t.Run("BudgetBelowPreamble", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxChars = 10

		_, err := Build(twoTableSchema(), cfg)
		if !errors.Is(err, ErrBudget) {
			t.Errorf("Expected ErrBudget, got %v", err)
		}

		if !errors.Is(err, ErrConfig) {
			t.Error("Expected ErrBudget to be a configuration error")
		}
	})

	t.Run("UnknownLanguage", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Language = "de"

		_, err := Build(twoTableSchema(), cfg)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("Expected ErrConfig, got %v", err)
		}
	})

	t.Run("NegativeSampleRows", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SampleRowsPerTable = -1

		_, err := Build(twoTableSchema(), cfg)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("Expected ErrConfig, got %v", err)
		}
	})
}

func TestBuildLanguages(t *testing.T) {
	t.Run("Persian", func(t *testing.T) {
		cfg := Config{MaxChars: 4000, SampleRowsPerTable: 1, IncludeTypes: true, Language: "fa"}

		artifact, err := Build(twoTableSchema(), cfg)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if !strings.Contains(artifact.Text, "جدول: orders") {
			t.Error("Expected Persian table label with original table name")
		}

		if len(artifact.Text) > cfg.MaxChars {
			t.Errorf("Expected bounded output, got %d bytes", len(artifact.Text))
		}

		if artifact.Language != LanguagePersian {
			t.Errorf("Expected language fa, got %s", artifact.Language)
		}
	})

	t.Run("EmptyLanguageDefaultsToEnglish", func(t *testing.T) {
		cfg := Config{MaxChars: 4000, SampleRowsPerTable: 0, IncludeTypes: false}

		artifact, err := Build(twoTableSchema(), cfg)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		if artifact.Language != LanguageEnglish {
			t.Errorf("Expected language en, got %s", artifact.Language)
		}
	})
}

func TestBuildWithoutTypes(t *testing.T) {
	cfg := Config{MaxChars: 4000, SampleRowsPerTable: 0, IncludeTypes: false}

	artifact, err := Build(twoTableSchema(), cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if strings.Contains(artifact.Text, "(integer") {
		t.Error("Expected no type annotations when IncludeTypes is false")
	}

	if !strings.Contains(artifact.Text, "  - total\n") {
		t.Error("Expected bare column names")
	}
}

func TestRenderSampleRow(t *testing.T) {
	got := renderSampleRow([]string{"a", "multi\nline value", ""})
	want := "a | multi line value | NULL"

	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

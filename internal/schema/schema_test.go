package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleDescriptor() Descriptor {
	return Descriptor{
		Tables: []Table{
			{
				Name: "orders",
				Columns: []Column{
					{Name: "id", Type: TypeInteger, Nullable: false},
					{Name: "total", Type: TypeFloat, Nullable: true},
				},
				Samples: [][]string{{"1", "59.90"}},
			},
			{
				Name: "customers",
				Columns: []Column{
					{Name: "id", Type: TypeInteger, Nullable: false},
				},
			},
		},
	}
}

func TestFingerprintStability(t *testing.T) {
	d := sampleDescriptor()
	assert.Equal(t, d.Fingerprint(), d.Fingerprint())
	assert.Len(t, d.Fingerprint(), 64)
}

func TestFingerprintIgnoresSamples(t *testing.T) {
	a := sampleDescriptor()
	b := sampleDescriptor()
	b.Tables[0].Samples = [][]string{{"2", "130.00"}, {"3", "45.10"}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintSensitivity(t *testing.T) {
	base := sampleDescriptor().Fingerprint()

	renamed := sampleDescriptor()
	renamed.Tables[0].Name = "orderz"
	assert.NotEqual(t, base, renamed.Fingerprint())

	retyped := sampleDescriptor()
	retyped.Tables[0].Columns[1].Type = TypeText
	assert.NotEqual(t, base, retyped.Fingerprint())

	nullability := sampleDescriptor()
	nullability.Tables[0].Columns[0].Nullable = true
	assert.NotEqual(t, base, nullability.Fingerprint())

	reordered := sampleDescriptor()
	reordered.Tables[0], reordered.Tables[1] = reordered.Tables[1], reordered.Tables[0]
	assert.NotEqual(t, base, reordered.Fingerprint())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, []string{"orders", "customers"}, sampleDescriptor().TableNames())
}

func TestHasTable(t *testing.T) {
	d := sampleDescriptor()
	assert.True(t, d.HasTable("orders"))
	assert.True(t, d.HasTable("ORDERS"))
	assert.False(t, d.HasTable("payments"))
}

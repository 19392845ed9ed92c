package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commercelens/commercelens/internal/schema"
)

func TestMapColumnType(t *testing.T) {
	tests := []struct {
		dataType string
		want     schema.ColumnType
	}{
		{"INTEGER", schema.TypeInteger},
		{"BIGINT", schema.TypeInteger},
		{"SMALLINT", schema.TypeInteger},
		{"DOUBLE", schema.TypeFloat},
		{"DECIMAL(18,3)", schema.TypeFloat},
		{"FLOAT", schema.TypeFloat},
		{"VARCHAR", schema.TypeText},
		{"TEXT", schema.TypeText},
		{"TIMESTAMP", schema.TypeDateTime},
		{"DATE", schema.TypeDateTime},
		{"BOOLEAN", schema.TypeBoolean},
		{"BLOB", schema.TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			assert.Equal(t, tt.want, mapColumnType(tt.dataType))
		})
	}
}

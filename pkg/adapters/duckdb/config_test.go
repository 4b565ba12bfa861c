package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name: "nil map",
			raw:  nil,
			want: &Params{},
		},
		{
			name: "extensions and settings",
			raw: map[string]any{
				"extensions": []string{"json", "httpfs"},
				"settings":   map[string]string{"memory_limit": "2GB"},
			},
			want: &Params{
				Extensions: []string{"json", "httpfs"},
				Settings:   map[string]string{"memory_limit": "2GB"},
			},
		},
		{
			name:    "wrong type",
			raw:     map[string]any{"extensions": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

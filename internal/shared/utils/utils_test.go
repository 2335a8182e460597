package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimToNil(t *testing.T) {
	assert.Nil(t, TrimToNil(nil))

	empty := "   "
	assert.Nil(t, TrimToNil(&empty))

	padded := "  Dune  "
	got := TrimToNil(&padded)
	require.NotNil(t, got)
	assert.Equal(t, "Dune", *got)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"iso date", "1965-08-01", "1965-08-01", false},
		{"rfc3339", "1965-08-01T10:30:00Z", "1965-08-01", false},
		{"day first", "25/12/1949", "1949-12-25", false},
		{"padded", "  1984-06-08  ", "1984-06-08", false},
		{"empty", "", "", true},
		{"garbage", "next tuesday", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDedupeNames(t *testing.T) {
	assert.Nil(t, DedupeNames(nil))
	assert.Nil(t, DedupeNames([]string{"", "   "}))

	got := DedupeNames([]string{" Frank Herbert ", "Frank Herbert", "", "Brian Herbert"})
	assert.Equal(t, []string{"Frank Herbert", "Brian Herbert"}, got)
}

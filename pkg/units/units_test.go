package units_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/exhume/pkg/units"
)

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   int64
		want string
	}{
		{"zero", 0, "0 B"},
		{"fifty bytes", 50, "50 B"},
		{"just below KiB", 1023, "1023 B"},
		{"one KiB", units.KiB, "1.00 KB"},
		{"one and a half KiB", 1536, "1.50 KB"},
		{"one MiB", units.MiB, "1.00 MB"},
		{"two and a quarter GiB", 2*units.GiB + units.GiB/4, "2.25 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, units.FormatSize(tt.in))
		})
	}
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"2048", 2048},
		{" 50 ", 50},
		{"2KiB", 2 * units.KiB},
		{"1 MiB", units.MiB},
		{"1KB", units.KiB},
		{"10kb", 10 * units.KiB},
		{"1.5 MB", 3 * units.MiB / 2},
		{"2G", 2 * units.GiB},
		{"1kB", units.KiB},
	}

	for _, tt := range tests {
		got, err := units.ParseSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseSizeInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "lots", "-5"} {
		_, err := units.ParseSize(in)
		require.ErrorIs(t, err, units.ErrInvalidSize, in)
	}
}

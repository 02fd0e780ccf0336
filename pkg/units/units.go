// Package units provides binary size multipliers and the size strings shown in reports.
package units

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/exhume/pkg/safeconv"
)

// Binary size multipliers.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// Unknown is printed in place of a size that could not be resolved.
const Unknown = "?"

// ErrInvalidSize is returned when a size string cannot be parsed.
var ErrInvalidSize = errors.New("invalid size")

// FormatSize renders a byte count as "N B" below one KiB, otherwise as KB, MB or GB
// on the 1024 scale with two decimals.
func FormatSize(n int64) string {
	switch {
	case n >= GiB:
		return fmt.Sprintf("%.2f GB", float64(n)/GiB)
	case n >= MiB:
		return fmt.Sprintf("%.2f MB", float64(n)/MiB)
	case n >= KiB:
		return fmt.Sprintf("%.2f KB", float64(n)/KiB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// binaryUnits maps the unit spellings FormatSize prints to their 1024-based names, so
// "10KB" on the command line means the same as "10.00 KB" in a listing.
var binaryUnits = map[string]string{
	"k": "KiB", "kb": "KiB",
	"m": "MiB", "mb": "MiB",
	"g": "GiB", "gb": "GiB",
}

// ParseSize accepts a plain byte count ("2048") or a humanized size ("2KB", "1 MiB").
// KB, MB and GB are 1024-based like the sizes FormatSize prints.
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}

	parsed, err := humanize.ParseBytes(binaryUnit(trimmed))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidSize, s, err)
	}

	size, ok := safeconv.Uint64ToInt64(parsed)
	if !ok {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}

	return size, nil
}

func binaryUnit(s string) string {
	cut := strings.LastIndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) + 1

	unit, ok := binaryUnits[strings.ToLower(s[cut:])]
	if !ok {
		return s
	}

	return s[:cut] + unit
}

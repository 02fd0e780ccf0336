package terminal

import (
	"fmt"
	"strings"
)

// Progress bar characters.
const (
	ProgressFilled = "█"
	ProgressEmpty  = "░"
)

// DrawProgressBar draws a bar of the given width. Value is clamped to [0, 1].
// Example: DrawProgressBar(0.7, 10) returns "███████░░░".
func DrawProgressBar(value float64, width int) string {
	if width <= 0 {
		return ""
	}

	value = min(max(value, 0), 1)
	filled := int(value * float64(width))

	return strings.Repeat(ProgressFilled, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// ProgressLine renders "label [███░░] done/total" fitted to the configured width.
func (c Config) ProgressLine(label string, done, total int) string {
	counter := fmt.Sprintf("%d/%d", done, total)

	ratio := 1.0
	if total > 0 {
		ratio = float64(done) / float64(total)
	}

	// label, two spaces, brackets and counter surround the bar.
	barWidth := c.Width - len(label) - len(counter) - 4
	if barWidth < 1 {
		return label + " " + counter
	}

	return fmt.Sprintf("%s [%s] %s", label, DrawProgressBar(ratio, barWidth), counter)
}

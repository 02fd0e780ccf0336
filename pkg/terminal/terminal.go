// Package terminal renders progress lines for interactive console output.
package terminal

import (
	"os"
	"strconv"
)

// Width bounds.
const (
	DefaultWidth = 80
	MinWidth     = 40
	MaxWidth     = 160
)

// Config holds terminal rendering configuration.
type Config struct {
	Width   int
	NoColor bool
}

// NewConfig reads width and color preferences from the environment.
// forceNoColor disables color even when NO_COLOR is unset.
func NewConfig(forceNoColor bool) Config {
	return Config{
		Width:   DetectWidth(),
		NoColor: forceNoColor || os.Getenv("NO_COLOR") != "",
	}
}

// DetectWidth returns the terminal width from COLUMNS clamped to [MinWidth, MaxWidth],
// or DefaultWidth when COLUMNS is unset or not a number.
func DetectWidth() int {
	width, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || width <= 0 {
		return DefaultWidth
	}

	return min(max(width, MinWidth), MaxWidth)
}

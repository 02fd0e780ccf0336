// Package sink consumes scanned deletions: it lists them or restores their contents.
package sink

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/exhume/pkg/terminal"
)

// Reporter receives user-facing status messages. Implementations are passed explicitly
// to each sink so that every repository in a run can share or replace them.
type Reporter interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Failure(format string, args ...any)
	Progress(label string, done, total int)
	Done()
}

// Status prefixes.
const (
	PrefixInfo    = "[i]"
	PrefixSuccess = "[+]"
	PrefixFailure = "[!]"
)

// ConsoleReporter prints colored status lines and a single-line progress bar.
type ConsoleReporter struct {
	out      io.Writer
	term     terminal.Config
	quiet    bool
	inLine   bool
	info     *color.Color
	success  *color.Color
	failure  *color.Color
	progress *color.Color
}

// NewConsoleReporter writes to out. Quiet drops progress and info lines.
func NewConsoleReporter(out io.Writer, term terminal.Config, quiet bool) *ConsoleReporter {
	r := &ConsoleReporter{
		out:      out,
		term:     term,
		quiet:    quiet,
		info:     color.New(color.FgGreen, color.Bold),
		success:  color.New(color.FgGreen),
		failure:  color.New(color.FgRed),
		progress: color.New(color.FgCyan),
	}

	if term.NoColor {
		for _, c := range []*color.Color{r.info, r.success, r.failure, r.progress} {
			c.DisableColor()
		}
	}

	return r
}

// Info prints an informational line.
func (r *ConsoleReporter) Info(format string, args ...any) {
	if r.quiet {
		return
	}

	r.line(r.info, PrefixInfo, format, args...)
}

// Success prints a green "[+]" line.
func (r *ConsoleReporter) Success(format string, args ...any) {
	r.line(r.success, PrefixSuccess, format, args...)
}

// Failure prints a red "[!]" line.
func (r *ConsoleReporter) Failure(format string, args ...any) {
	r.line(r.failure, PrefixFailure, format, args...)
}

// Progress redraws the progress line in place.
func (r *ConsoleReporter) Progress(label string, done, total int) {
	if r.quiet {
		return
	}

	label = terminal.TruncateWithEllipsis(label, r.term.Width/2)

	r.progress.Fprint(r.out, "\r"+r.term.ProgressLine(label, done, total))
	r.inLine = true
}

// Done ends an in-place progress line.
func (r *ConsoleReporter) Done() {
	if r.inLine {
		fmt.Fprintln(r.out)
		r.inLine = false
	}
}

func (r *ConsoleReporter) line(c *color.Color, prefix, format string, args ...any) {
	r.Done()

	c.Fprint(r.out, prefix)
	fmt.Fprintf(r.out, " "+format+"\n", args...)
}

package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/exhume/pkg/history"
	"github.com/Sumatoshi-tech/exhume/pkg/units"
)

// ErrUnknownFormat is returned for an unsupported listing format.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is a listing output format.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name. The empty string means table.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (want table, json or yaml)", ErrUnknownFormat, name)
	}
}

const tableTitle = "Deleted Files"

// Row is one listed deletion.
type Row struct {
	Commit   string `json:"commit"             yaml:"commit"`
	Hash     string `json:"hash"               yaml:"hash"`
	Path     string `json:"path"               yaml:"path"`
	Size     string `json:"size"               yaml:"size"`
	Bytes    *int64 `json:"bytes,omitempty"    yaml:"bytes,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// NewRow formats a deletion for display. Unresolved sizes show as "?".
func NewRow(d history.Deletion) Row {
	row := Row{
		Commit:   d.Commit.Short(),
		Hash:     d.Commit.String(),
		Path:     d.Path,
		Size:     units.Unknown,
		Language: d.Language,
	}

	if d.SizeKnown {
		size := d.Size
		row.Size = units.FormatSize(size)
		row.Bytes = &size
	}

	return row
}

// List renders every deletion in the chosen format and returns how many were listed.
func List(w io.Writer, format Format, deletions iter.Seq[history.Deletion]) (int, error) {
	rows := []Row{}
	for d := range deletions {
		rows = append(rows, NewRow(d))
	}

	var err error

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(rows)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		err = enc.Encode(rows)
		if err == nil {
			err = enc.Close()
		}
	case FormatTable, "":
		_, err = fmt.Fprintln(w, renderTable(rows))
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return 0, fmt.Errorf("render listing: %w", err)
	}

	return len(rows), nil
}

func renderTable(rows []Row) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(tableTitle)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault

	tbl.AppendHeader(table.Row{"Commit", "File Path", "Size", "Language"})

	for _, row := range rows {
		tbl.AppendRow(table.Row{row.Commit, row.Path, row.Size, row.Language})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d deleted files", len(rows)), "", ""})

	return tbl.Render()
}

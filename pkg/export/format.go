// Package export renders the fixed schedule and weather tables behind the
// export commands.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// Format is an output table format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
)

const fileMode os.FileMode = 0o644

// Formats lists the accepted formats in help order.
var Formats = []Format{FormatMarkdown, FormatCSV, FormatTSV}

// ParseFormat accepts md, csv or tsv, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatMarkdown, FormatCSV, FormatTSV:
		return f, nil
	case "":
		return FormatMarkdown, nil
	}
	return "", errors.Errorf("invalid format %q, expected one of md, csv, tsv", s)
}

// Extension is the file extension used for default output names.
func (f Format) Extension() string {
	return string(f)
}

func (f Format) delimiter() string {
	if f == FormatTSV {
		return "\t"
	}
	return ","
}

// table is a header plus rows, with a placeholder row for the empty case.
type table struct {
	header      []string
	separator   string
	rows        [][]string
	placeholder []string
}

func (t table) render(f Format) string {
	rows := t.rows
	if len(rows) == 0 {
		rows = [][]string{t.placeholder}
	}

	lines := make([]string, 0, len(rows)+2)
	if f == FormatMarkdown {
		lines = append(lines, markdownRow(t.header), t.separator)
		for _, row := range rows {
			lines = append(lines, markdownRow(row))
		}
		return strings.Join(lines, "\n")
	}

	d := f.delimiter()
	lines = append(lines, strings.Join(t.header, d))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, d))
	}
	return strings.Join(lines, "\n")
}

func markdownRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

// DefaultOutputPath is "<prefix>-<date>.<ext>".
func DefaultOutputPath(prefix, date string, f Format) string {
	return fmt.Sprintf("%s-%s.%s", prefix, date, f.Extension())
}

// WriteFile writes content plus a trailing newline to path, holding an
// exclusive file lock while writing.
func WriteFile(path, content string) error {
	if err := lockedfile.Write(path, strings.NewReader(content+"\n"), fileMode); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

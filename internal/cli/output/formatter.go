package output

import (
	"fmt"
	"io"
	"strings"
)

// Format is a --output value.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formatter writes a command result.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// ParseFormat validates a --output value. Empty means table.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// NewFormatter returns the formatter for format. wide only affects tables.
func NewFormatter(format Format, wide bool) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{}
	}
	if format == FormatYAML {
		return &YAMLFormatter{}
	}
	return &TableFormatter{Wide: wide}
}

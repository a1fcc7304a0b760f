// Package cliplot writes a regulation trace to CSV, the demo driver's
// equivalent of an XPlot trace writer but in a plain, spreadsheet-friendly
// format rather than a double-valued plot format.
package cliplot

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Trace buffers rows of named columns and flushes them to a CSV file.
type Trace struct {
	columns []string
	file    *os.File
	writer  *bufio.Writer
}

// New creates (or truncates) path and writes the CSV header row.
func New(path string, columns ...string) (*Trace, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cliplot: %w", err)
	}
	t := &Trace{columns: columns, file: f, writer: bufio.NewWriter(f)}
	if _, err := t.writer.WriteString(strings.Join(columns, ",") + "\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("cliplot: %w", err)
	}
	return t, nil
}

// Row appends one sample row; len(values) must equal the column count.
func (t *Trace) Row(values ...float64) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("cliplot: got %d values, want %d columns", len(values), len(t.columns))
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	_, err := t.writer.WriteString(strings.Join(parts, ",") + "\n")
	return err
}

func formatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}

// Close flushes buffered rows and closes the underlying file.
func (t *Trace) Close() error {
	if err := t.writer.Flush(); err != nil {
		t.file.Close()
		return err
	}
	return t.file.Close()
}

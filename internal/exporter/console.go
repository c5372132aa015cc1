package exporter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"txreport/internal/dataprocessing"
)

// ConsoleWriter prints the textual part of the report.
type ConsoleWriter struct {
	out io.Writer
}

// NewConsoleWriter creates a console writer on out
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: out}
}

// PrintTimestampStats prints how many timestamps survived normalization
func (c *ConsoleWriter) PrintTimestampStats(stats dataprocessing.NormalizationStats) {
	fmt.Fprintln(c.out, "\n=== TIMESTAMP CONVERSION ===")
	fmt.Fprintf(c.out, "Total rows: %d\n", stats.TotalRows)
	fmt.Fprintf(c.out, "Valid timestamps: %d\n", stats.ValidTimestamps)
	fmt.Fprintf(c.out, "Invalid timestamps: %d\n", stats.MissingTimestamps)
}

// PrintSummary prints the scalar statistics with their fixed labels
func (c *ConsoleWriter) PrintSummary(s dataprocessing.Summary) {
	fmt.Fprintln(c.out, "\n=== DATA STATISTICS ===")
	for _, stat := range s.Stats() {
		fmt.Fprintf(c.out, "%s: %s\n", stat.Label, formatNumber(stat.Value))
	}
}

// PrintGroupStats prints a per-group detail table rounded to 2 decimals
func (c *ConsoleWriter) PrintGroupStats(title, keyHeader string, stats []dataprocessing.GroupStats) {
	fmt.Fprintf(c.out, "\n=== %s ===\n", title)
	if len(stats) == 0 {
		fmt.Fprintln(c.out, "(no data)")
		return
	}
	c.printTable(groupStatsTable(keyHeader, stats))
}

// printTable writes a pipe separated table; the first column is left
// aligned and the rest right aligned.
func (c *ConsoleWriter) printTable(t table) {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	c.printRow(t.Headers, widths)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(c.out, strings.Join(sep, "-|-"))
	for _, row := range t.Rows {
		c.printRow(row, widths)
	}
}

func (c *ConsoleWriter) printRow(cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		if i == 0 {
			parts[i] = cell + pad
		} else {
			parts[i] = pad + cell
		}
	}
	fmt.Fprintln(c.out, strings.Join(parts, " | "))
}

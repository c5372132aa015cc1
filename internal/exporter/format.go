package exporter

import (
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

// formatFloat formats a value with exactly 2 decimal places; NaN prints as "NaN"
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(round2(f), 'f', 2, 64)
}

// formatNumber formats a value with no trailing zeros, so counts print as integers
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an integer value
func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// round2 rounds half away from zero to 2 decimal places
func round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Round(f*100) / 100
}

// shortenLabel keeps the head and tail of labels longer than max runes,
// joined by "...". Addresses and hashes stay recognizable this way.
func shortenLabel(s string, max int) string {
	if max < 5 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	keep := max - 3
	head := (keep + 1) / 2
	tail := keep - head
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}

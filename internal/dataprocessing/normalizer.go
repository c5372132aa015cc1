package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"txreport/pkg/contracts/domain"
)

const byteOrderMark = "\ufeff"

// missingTokens are the textual forms exports use for an empty cell.
var missingTokens = map[string]struct{}{
	"#n/a": {}, "#n/a n/a": {}, "#na": {}, "-nan": {}, "<na>": {},
	"n/a": {}, "na": {}, "nan": {}, "nat": {}, "null": {}, "none": {},
}

// IsMissingToken reports whether s is a textual placeholder for a missing value.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// timestampLayouts are tried before falling back to format inference.
// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05 MST",
	"2006-01-02",
}

// CleanTimestamp trims whitespace and byte order marks from a raw timestamp.
// It returns false when nothing usable is left.
func CleanTimestamp(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, byteOrderMark)
	s = strings.TrimSuffix(s, byteOrderMark)
	s = strings.TrimSpace(s)

	if s == "" || IsMissingToken(s) {
		return "", false
	}
	return s, true
}

// ParseTimestamp converts a cleaned timestamp into a UTC instant. Naive values
// are taken as UTC. It never fails loudly; ok is false when no format fits.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// NormalizationStats summarizes the timestamp conversion of a run.
// ValidTimestamps + MissingTimestamps == TotalRows.
type NormalizationStats struct {
	TotalRows         int `json:"total_rows"`
	ValidTimestamps   int `json:"valid_timestamps"`
	MissingTimestamps int `json:"missing_timestamps"`
	// Unparseable counts the missing timestamps that had text which fit no format.
	Unparseable int `json:"unparseable"`
}

// Normalizer turns loaded records into the typed transaction table.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		logger: logger.With(slog.String("component", "normalizer")),
	}
}

// Normalize builds the table from records. Row count and order are preserved;
// timestamps that are blank or unparseable become nulls.
func (n *Normalizer) Normalize(ctx context.Context, records []domain.TransactionRecord) (*Table, NormalizationStats) {
	stats := NormalizationStats{TotalRows: len(records)}
	builder := newTableBuilder(len(records))

	for _, rec := range records {
		ts, ok := time.Time{}, false
		if cleaned, present := CleanTimestamp(rec.RawTimestamp); present {
			ts, ok = ParseTimestamp(cleaned)
			if !ok {
				stats.Unparseable++
				if stats.Unparseable <= 5 {
					n.logger.DebugContext(ctx, "Unparseable timestamp",
						slog.String("value", cleaned),
						slog.String("file", rec.SourceFile))
				}
			}
		}

		if ok {
			stats.ValidTimestamps++
		} else {
			stats.MissingTimestamps++
		}
		builder.append(rec, ts, ok)
	}

	n.logger.InfoContext(ctx, "Timestamps normalized",
		slog.Int("total_rows", stats.TotalRows),
		slog.Int("valid", stats.ValidTimestamps),
		slog.Int("missing", stats.MissingTimestamps),
		slog.Int("unparseable", stats.Unparseable))

	return builder.build(), stats
}

package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txreport/pkg/contracts/domain"
)

func TestCleanTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "  2024-01-15 10:23:45.000 ", want: "2024-01-15 10:23:45.000", ok: true},
		{raw: "\ufeff2024-01-15", want: "2024-01-15", ok: true},
		{raw: "", ok: false},
		{raw: "   ", ok: false},
		{raw: "\ufeff", ok: false},
		{raw: " \ufeff ", ok: false},
		{raw: "NaT", ok: false},
		{raw: "nan", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := CleanTimestamp(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "export format with millis",
			input: "2024-01-15 10:23:45.000",
			want:  time.Date(2024, 1, 15, 10, 23, 45, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "utc suffix",
			input: "2024-01-15 10:23:45.123 UTC",
			want:  time.Date(2024, 1, 15, 10, 23, 45, 123000000, time.UTC),
			ok:    true,
		},
		{
			name:  "rfc3339 with offset converts to utc",
			input: "2024-01-15T23:30:00+02:00",
			want:  time.Date(2024, 1, 15, 21, 30, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "date only",
			input: "2024-03-01",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "inferred slash format",
			input: "03/01/2024 14:05",
			want:  time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "not a date",
			input: "garbage",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	records := []domain.TransactionRecord{
		{RawTimestamp: "2024-01-15 10:00:00.000", Amount: 10, AmountValid: true, TxHash: "0x1", Account: "a", Token: "T", Event: "E", SourceFile: "f.csv"},
		{RawTimestamp: "", Amount: 5, AmountValid: true, TxHash: "0x2", Token: "T"},
		{RawTimestamp: "\ufeff", TxHash: "0x3"},
		{RawTimestamp: "not a timestamp", Amount: 1, AmountValid: true},
	}

	table, stats := NewNormalizer(nil).Normalize(context.Background(), records)
	defer table.Release()

	assert.Equal(t, NormalizationStats{TotalRows: 4, ValidTimestamps: 1, MissingTimestamps: 3, Unparseable: 1}, stats)
	assert.Equal(t, stats.TotalRows, stats.ValidTimestamps+stats.MissingTimestamps)
	require.Equal(t, 4, table.Len())

	ts, ok := table.Timestamp(0)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), ts)

	_, ok = table.Timestamp(1)
	assert.False(t, ok)

	amount, ok := table.Amount(1)
	assert.True(t, ok)
	assert.Equal(t, 5.0, amount)

	_, ok = table.Amount(2)
	assert.False(t, ok)

	_, ok = table.Account(1)
	assert.False(t, ok)

	src, ok := table.SourceFile(0)
	assert.True(t, ok)
	assert.Equal(t, "f.csv", src)

	token, ok := table.Key(domain.GroupByToken, 1)
	assert.True(t, ok)
	assert.Equal(t, "T", token)
}

func TestNormalizer_EmptyInput(t *testing.T) {
	table, stats := NewNormalizer(nil).Normalize(context.Background(), nil)
	defer table.Release()

	assert.Equal(t, 0, table.Len())
	assert.Equal(t, NormalizationStats{}, stats)
	assert.Equal(t, int64(7), table.Record().NumCols())
}

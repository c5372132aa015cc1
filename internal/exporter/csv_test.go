package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txreport/internal/dataprocessing"
	apperrors "txreport/internal/errors"
	"txreport/pkg/contracts/domain"
)

func record(ts string, amount float64, hash, account, token, event string) domain.TransactionRecord {
	return domain.TransactionRecord{
		RawTimestamp: ts,
		Amount:       amount,
		AmountValid:  true,
		TxHash:       hash,
		Account:      account,
		Token:        token,
		Event:        event,
	}
}

// sampleAggregates builds aggregates over a small fixed data set
func sampleAggregates(t *testing.T) (*dataprocessing.Aggregates, dataprocessing.NormalizationStats) {
	t.Helper()
	table, stats := dataprocessing.NewNormalizer(nil).Normalize(context.Background(), []domain.TransactionRecord{
		record("2024-01-15 10:00:00.000", 100, "0x1", "0xaaaaaaaaaaaaaaaaaaaa1111", "USDC", "Deposit"),
		record("2024-01-15 12:00:00.000", 50.25, "0x2", "0xbbbb", "WETH", "Deposit"),
		record("2024-01-16 08:00:00.000", 25, "0x3", "0xaaaaaaaaaaaaaaaaaaaa1111", "USDC", "Withdraw"),
		record("", 10, "0x4", "0xcccc", "DAI", "Borrow"),
	})
	t.Cleanup(table.Release)
	return dataprocessing.Aggregate(table), stats
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, utf8BOM), "missing BOM in %s", path)

	rows, err := csv.NewReader(bytes.NewReader(content[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name     string
		options  WriteOptions
		validate func(t *testing.T, content []byte)
	}{
		{
			name: "basic write with headers",
			options: WriteOptions{
				Headers: []string{"Token", "Sum"},
				Records: [][]string{{"USDC", "125.00"}, {"WETH", "50.26"}},
			},
			validate: func(t *testing.T, content []byte) {
				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Equal(t, []string{"Token,Sum", "USDC,125.00", "WETH,50.26"}, lines)
			},
		},
		{
			name: "write with BOM prefix",
			options: WriteOptions{
				Headers:   []string{"Date", "Volume"},
				Records:   [][]string{{"2024-01-15", "150.26"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, content []byte) {
				assert.True(t, bytes.HasPrefix(content, utf8BOM))
				lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
				assert.Equal(t, "Date,Volume", lines[0])
			},
		},
		{
			name: "quotes fields with separators",
			options: WriteOptions{
				Headers: []string{"Event"},
				Records: [][]string{{"Swap, exact in"}},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Contains(t, string(content), `"Swap, exact in"`)
			},
		},
		{
			name: "empty records",
			options: WriteOptions{
				Headers: []string{"Col1", "Col2"},
				Records: [][]string{},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "Col1,Col2\n", string(content))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writer := NewCSVWriter(dir, nil)

			require.NoError(t, writer.WriteCSV("out.csv", tt.options))

			content, err := os.ReadFile(filepath.Join(dir, "out.csv"))
			require.NoError(t, err)
			tt.validate(t, content)
		})
	}
}

func TestCSVWriter_Append(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	require.NoError(t, writer.WriteSimpleCSV("data.csv", []string{"A", "B"}, [][]string{{"1", "2"}}))
	require.NoError(t, writer.WriteCSV("data.csv", WriteOptions{
		Headers: []string{"ignored"},
		Records: [][]string{{"3", "4"}},
		Append:  true,
	}))

	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}, {"3", "4"}}, readCSV(t, filepath.Join(dir, "data.csv")))
}

func TestCSVWriter_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "run1")
	writer := NewCSVWriter(dir, nil)

	require.NoError(t, writer.WriteSimpleCSV("nested.csv", []string{"X"}, [][]string{{"1"}}))
	assert.FileExists(t, filepath.Join(dir, "nested.csv"))
}

func TestCSVWriter_AbsolutePathIgnoresDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "absolute.csv")
	writer := NewCSVWriter(filepath.Join(t.TempDir(), "unused"), nil)

	require.NoError(t, writer.WriteSimpleCSV(target, []string{"X"}, nil))
	assert.FileExists(t, target)
}

func TestStreamWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"Account", "Volume"})
	require.NoError(t, err)
	for _, row := range [][]string{{"0xa", "1.00"}, {"0xb", "2.00"}} {
		require.NoError(t, stream.WriteRecord(row))
	}
	require.NoError(t, stream.Close())

	assert.Equal(t, [][]string{{"Account", "Volume"}, {"0xa", "1.00"}, {"0xb", "2.00"}},
		readCSV(t, filepath.Join(dir, "stream.csv")))
}

func TestCSVWriter_ExportAggregates(t *testing.T) {
	agg, _ := sampleAggregates(t)
	dir := t.TempDir()

	require.NoError(t, NewCSVWriter(dir, nil).ExportAggregates(agg))

	daily := readCSV(t, filepath.Join(dir, DailyVolumeFile))
	assert.Equal(t, [][]string{
		{"Date", "Volume"},
		{"2024-01-15", "150.25"},
		{"2024-01-16", "25.00"},
	}, daily)

	tokens := readCSV(t, filepath.Join(dir, TokenStatsFile))
	require.Len(t, tokens, 4)
	assert.Equal(t, []string{"Token", "Sum", "Mean", "Count", "Unique Accounts"}, tokens[0])
	assert.Equal(t, []string{"DAI", "10.00", "10.00", "1", "1"}, tokens[1])
	assert.Equal(t, []string{"USDC", "125.00", "62.50", "2", "1"}, tokens[2])

	events := readCSV(t, filepath.Join(dir, EventStatsFile))
	assert.Len(t, events, 4)

	accounts := readCSV(t, filepath.Join(dir, AccountVolumeFile))
	assert.Equal(t, []string{"Account", "Volume"}, accounts[0])
	assert.Len(t, accounts, 4)
}

func TestCSVWriter_ExportAggregatesFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	agg, _ := sampleAggregates(t)
	err := NewCSVWriter(filepath.Join(blocker, "sub"), nil).ExportAggregates(agg)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExport))
}

package dataprocessing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txreport/pkg/contracts/domain"
)

func rec(ts string, amount float64, hash, account, token, event string) domain.TransactionRecord {
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

func buildTable(t *testing.T, records ...domain.TransactionRecord) *Table {
	t.Helper()
	table, _ := NewNormalizer(nil).Normalize(context.Background(), records)
	t.Cleanup(table.Release)
	return table
}

func TestSummarize(t *testing.T) {
	noAmount := rec("2024-01-15", 0, "0x3", "", "", "Deposit")
	noAmount.AmountValid = false

	table := buildTable(t,
		rec("2024-01-15 10:00:00", 100, "0x1", "a", "USDC", "Deposit"),
		rec("2024-01-15 11:00:00", 50.5, "0x1", "b", "WETH", "Withdraw"),
		noAmount,
	)

	s := Summarize(table)
	assert.InDelta(t, 150.5, s.TotalAmount, 1e-9)
	assert.Equal(t, 2, s.DistinctTxHashes)
	assert.Equal(t, 2, s.DistinctAccounts)
	assert.Equal(t, 2, s.DistinctTokens)
	assert.Equal(t, 2, s.DistinctEvents)

	stats := s.Stats()
	require.Len(t, stats, 5)
	assert.Equal(t, "Total Volume", stats[0].Label)
	assert.Equal(t, 150.5, stats[0].Value)
	assert.Equal(t, "Unique Events", stats[4].Label)
}

func TestSummarize_EmptyTable(t *testing.T) {
	s := Summarize(buildTable(t))
	assert.Equal(t, Summary{}, s)
}

func TestDailyVolume(t *testing.T) {
	table := buildTable(t,
		rec("2024-01-16 01:00:00", 5, "0x1", "a", "T", "E"),
		rec("2024-01-15 23:59:59", 10, "0x2", "a", "T", "E"),
		rec("2024-01-15T23:30:00-02:00", 7, "0x3", "a", "T", "E"),
		rec("", 1000, "0x4", "a", "T", "E"),
		rec("2024-01-15 00:00:00", 2, "0x5", "a", "T", "E"),
	)

	daily := DailyVolume(table)
	require.Len(t, daily, 2)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), daily[0].Date)
	assert.Equal(t, 12.0, daily[0].Total)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), daily[1].Date)
	assert.Equal(t, 12.0, daily[1].Total)

	var dailySum float64
	for _, d := range daily {
		dailySum += d.Total
	}
	assert.InDelta(t, Summarize(table).TotalAmount, dailySum+1000, 1e-9)
}

func TestSumBy(t *testing.T) {
	table := buildTable(t,
		rec("2024-01-15", 10, "0x1", "a", "WETH", "E"),
		rec("2024-01-15", 20, "0x2", "b", "USDC", "E"),
		rec("2024-01-15", 5, "0x3", "a", "WETH", "E"),
		rec("2024-01-15", 99, "0x4", "c", "", "E"),
	)

	assert.Equal(t, []GroupTotal{{Key: "USDC", Value: 20}, {Key: "WETH", Value: 15}},
		SumBy(table, domain.GroupByToken))
	assert.Equal(t, []GroupTotal{{Key: "a", Value: 15}, {Key: "b", Value: 20}, {Key: "c", Value: 99}},
		SumBy(table, domain.GroupByAccount))
}

func TestCountBy(t *testing.T) {
	noAmount := rec("2024-01-15", 0, "0x4", "a", "T", "Swap")
	noAmount.AmountValid = false

	table := buildTable(t,
		rec("2024-01-15", 1, "0x1", "a", "T", "Swap"),
		rec("2024-01-15", 1, "0x2", "a", "T", "Deposit"),
		rec("2024-01-15", 1, "0x3", "a", "T", ""),
		noAmount,
	)

	assert.Equal(t, []GroupTotal{{Key: "Deposit", Value: 1}, {Key: "Swap", Value: 2}},
		CountBy(table, domain.GroupByEvent))
}

func TestDetailBy(t *testing.T) {
	noAmount := rec("2024-01-15", 0, "0x4", "c", "WETH", "E")
	noAmount.AmountValid = false
	onlyMissing := rec("2024-01-15", 0, "0x5", "d", "DAI", "E")
	onlyMissing.AmountValid = false

	table := buildTable(t,
		rec("2024-01-15", 10, "0x1", "a", "WETH", "E"),
		rec("2024-01-15", 20, "0x2", "b", "WETH", "E"),
		rec("2024-01-15", 30, "0x3", "a", "WETH", "E"),
		noAmount,
		onlyMissing,
	)

	stats := DetailBy(table, domain.GroupByToken)
	require.Len(t, stats, 2)

	assert.Equal(t, "DAI", stats[0].Key)
	assert.Equal(t, 0.0, stats[0].Sum)
	assert.Equal(t, 0, stats[0].Count)
	assert.True(t, math.IsNaN(stats[0].Mean))
	assert.Equal(t, 1, stats[0].DistinctAccounts)

	assert.Equal(t, "WETH", stats[1].Key)
	assert.Equal(t, 60.0, stats[1].Sum)
	assert.Equal(t, 20.0, stats[1].Mean)
	assert.Equal(t, 3, stats[1].Count)
	assert.Equal(t, 3, stats[1].DistinctAccounts)
}

func TestTopN(t *testing.T) {
	groups := []GroupTotal{
		{Key: "A", Value: 100},
		{Key: "B", Value: 90},
		{Key: "C", Value: 90},
		{Key: "D", Value: 10},
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "ties keep key order", n: 2, want: []string{"A", "B"}},
		{name: "tie inside the cut", n: 3, want: []string{"A", "B", "C"}},
		{name: "n larger than groups", n: 10, want: []string{"A", "B", "C", "D"}},
		{name: "zero", n: 0, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top := TopN(groups, tt.n)
			keys := make([]string, len(top))
			for i, g := range top {
				keys[i] = g.Key
			}
			assert.Equal(t, tt.want, keys)
			for i := 1; i < len(top); i++ {
				assert.GreaterOrEqual(t, top[i-1].Value, top[i].Value)
			}
		})
	}

	assert.Equal(t, "A", groups[0].Key, "input must not be reordered")
}

func TestTopN_ReordersByValue(t *testing.T) {
	groups := []GroupTotal{{Key: "a", Value: 1}, {Key: "b", Value: 3}, {Key: "c", Value: 2}}
	assert.Equal(t, []GroupTotal{{Key: "b", Value: 3}, {Key: "c", Value: 2}}, TopN(groups, 2))
}

func TestAggregate(t *testing.T) {
	table := buildTable(t,
		rec("2024-01-15", 100, "0x1", "a", "A", "Deposit"),
		rec("2024-01-15", 90, "0x2", "b", "B", "Deposit"),
		rec("2024-01-16", 90, "0x3", "c", "C", "Swap"),
		rec("2024-01-16", 10, "0x4", "d", "D", "Swap"),
	)

	agg := Aggregate(table)
	assert.Equal(t, 290.0, agg.Summary.TotalAmount)
	assert.Len(t, agg.Daily, 2)
	assert.Len(t, agg.TokenVolume, 4)
	assert.Len(t, agg.AccountVolume, 4)
	assert.Equal(t, []GroupTotal{{Key: "Deposit", Value: 190}, {Key: "Swap", Value: 100}}, agg.EventVolume)
	assert.Equal(t, []GroupTotal{{Key: "Deposit", Value: 2}, {Key: "Swap", Value: 2}}, agg.EventCounts)
	assert.Len(t, agg.TokenStats, 4)
	assert.Len(t, agg.EventStats, 2)

	top := TopN(agg.TokenVolume, 2)
	assert.Equal(t, []GroupTotal{{Key: "A", Value: 100}, {Key: "B", Value: 90}}, top)
}

package dataprocessing

import (
	"math"
	"sort"
	"time"

	"txreport/pkg/contracts/domain"
)

// Stat is one labelled scalar of the summary
type Stat struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Summary holds the whole-table scalar statistics.
type Summary struct {
	TotalAmount      float64 `json:"total_amount"`
	DistinctTxHashes int     `json:"distinct_tx_hashes"`
	DistinctAccounts int     `json:"distinct_accounts"`
	DistinctTokens   int     `json:"distinct_tokens"`
	DistinctEvents   int     `json:"distinct_events"`
}

// Stats returns the summary as an ordered label/value list
func (s Summary) Stats() []Stat {
	return []Stat{
		{Key: "total_amount", Label: "Total Volume", Value: s.TotalAmount},
		{Key: "distinct_tx_hashes", Label: "Transaction Count", Value: float64(s.DistinctTxHashes)},
		{Key: "distinct_accounts", Label: "Unique Addresses", Value: float64(s.DistinctAccounts)},
		{Key: "distinct_tokens", Label: "Unique Tokens", Value: float64(s.DistinctTokens)},
		{Key: "distinct_events", Label: "Unique Events", Value: float64(s.DistinctEvents)},
	}
}

// DailyTotal is the amount summed over one UTC calendar day
type DailyTotal struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
}

// GroupTotal is a single value per group key (a sum or a row count)
type GroupTotal struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// GroupStats is the detail row of a token or event breakdown.
// Count is the number of rows with an amount; Mean is NaN when Count is 0.
type GroupStats struct {
	Key              string  `json:"key"`
	Sum              float64 `json:"sum"`
	Mean             float64 `json:"mean"`
	Count            int     `json:"count"`
	DistinctAccounts int     `json:"distinct_accounts"`
}

// Aggregates bundles every statistic the reports draw from.
// Grouped slices are in ascending key order.
type Aggregates struct {
	Summary       Summary      `json:"summary"`
	Daily         []DailyTotal `json:"daily"`
	TokenVolume   []GroupTotal `json:"token_volume"`
	EventVolume   []GroupTotal `json:"event_volume"`
	EventCounts   []GroupTotal `json:"event_counts"`
	AccountVolume []GroupTotal `json:"account_volume"`
	TokenStats    []GroupStats `json:"token_stats"`
	EventStats    []GroupStats `json:"event_stats"`
}

// Aggregate computes all statistics over t
func Aggregate(t *Table) *Aggregates {
	return &Aggregates{
		Summary:       Summarize(t),
		Daily:         DailyVolume(t),
		TokenVolume:   SumBy(t, domain.GroupByToken),
		EventVolume:   SumBy(t, domain.GroupByEvent),
		EventCounts:   CountBy(t, domain.GroupByEvent),
		AccountVolume: SumBy(t, domain.GroupByAccount),
		TokenStats:    DetailBy(t, domain.GroupByToken),
		EventStats:    DetailBy(t, domain.GroupByEvent),
	}
}

// Summarize computes the scalar statistics. Missing amounts add nothing and
// missing identifiers are not a distinct value.
func Summarize(t *Table) Summary {
	var s Summary
	hashes := make(map[string]struct{})
	accounts := make(map[string]struct{})
	tokens := make(map[string]struct{})
	events := make(map[string]struct{})

	for i := 0; i < t.Len(); i++ {
		if v, ok := t.Amount(i); ok {
			s.TotalAmount += v
		}
		addPresent(hashes, t.TxHash, i)
		addPresent(accounts, t.Account, i)
		addPresent(tokens, t.Token, i)
		addPresent(events, t.Event, i)
	}

	s.DistinctTxHashes = len(hashes)
	s.DistinctAccounts = len(accounts)
	s.DistinctTokens = len(tokens)
	s.DistinctEvents = len(events)
	return s
}

func addPresent(set map[string]struct{}, get func(int) (string, bool), i int) {
	if v, ok := get(i); ok {
		set[v] = struct{}{}
	}
}

// DailyVolume sums amounts per UTC date in date order. Rows without a
// timestamp are left out; a day whose amounts are all missing totals 0.
func DailyVolume(t *Table) []DailyTotal {
	totals := make(map[time.Time]float64)
	for i := 0; i < t.Len(); i++ {
		ts, ok := t.Timestamp(i)
		if !ok {
			continue
		}
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		amount, _ := t.Amount(i)
		totals[day] += amount
	}

	daily := make([]DailyTotal, 0, len(totals))
	for day, total := range totals {
		daily = append(daily, DailyTotal{Date: day, Total: total})
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})
	return daily
}

// SumBy sums amounts per key; rows missing the key are excluded.
func SumBy(t *Table, key domain.GroupKey) []GroupTotal {
	return groupTotals(t, key, func(i int) float64 {
		v, _ := t.Amount(i)
		return v
	})
}

// CountBy counts rows per key; rows missing the key are excluded.
func CountBy(t *Table, key domain.GroupKey) []GroupTotal {
	return groupTotals(t, key, func(int) float64 { return 1 })
}

func groupTotals(t *Table, key domain.GroupKey, value func(int) float64) []GroupTotal {
	totals := make(map[string]float64)
	for i := 0; i < t.Len(); i++ {
		k, ok := t.Key(key, i)
		if !ok {
			continue
		}
		totals[k] += value(i)
	}

	keys := sortedKeys(totals)
	groups := make([]GroupTotal, len(keys))
	for i, k := range keys {
		groups[i] = GroupTotal{Key: k, Value: totals[k]}
	}
	return groups
}

// DetailBy computes sum, mean, amount count and distinct accounts per key.
func DetailBy(t *Table, key domain.GroupKey) []GroupStats {
	type acc struct {
		sum      float64
		count    int
		accounts map[string]struct{}
	}

	groups := make(map[string]*acc)
	for i := 0; i < t.Len(); i++ {
		k, ok := t.Key(key, i)
		if !ok {
			continue
		}
		g, exists := groups[k]
		if !exists {
			g = &acc{accounts: make(map[string]struct{})}
			groups[k] = g
		}
		if v, ok := t.Amount(i); ok {
			g.sum += v
			g.count++
		}
		addPresent(g.accounts, t.Account, i)
	}

	keys := sortedKeys(groups)
	stats := make([]GroupStats, len(keys))
	for i, k := range keys {
		g := groups[k]
		mean := math.NaN()
		if g.count > 0 {
			mean = g.sum / float64(g.count)
		}
		stats[i] = GroupStats{
			Key:              k,
			Sum:              g.sum,
			Mean:             mean,
			Count:            g.count,
			DistinctAccounts: len(g.accounts),
		}
	}
	return stats
}

// TopN returns at most n groups with the largest values, highest first.
// Ties keep their incoming order.
func TopN(groups []GroupTotal, n int) []GroupTotal {
	if n <= 0 {
		return []GroupTotal{}
	}
	sorted := make([]GroupTotal, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

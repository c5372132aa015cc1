package exporter

import (
	"txreport/internal/dataprocessing"
)

// table is a header plus formatted rows, shared by the console, CSV and
// workbook outputs.
type table struct {
	Headers []string
	Rows    [][]string
}

func summaryTable(s dataprocessing.Summary) table {
	t := table{Headers: []string{"Metric", "Value"}}
	for _, stat := range s.Stats() {
		t.Rows = append(t.Rows, []string{stat.Label, formatNumber(stat.Value)})
	}
	return t
}

func dailyTable(daily []dataprocessing.DailyTotal) table {
	t := table{Headers: []string{"Date", "Volume"}}
	for _, d := range daily {
		t.Rows = append(t.Rows, []string{formatDate(d.Date), formatFloat(d.Total)})
	}
	return t
}

func groupStatsTable(keyHeader string, stats []dataprocessing.GroupStats) table {
	t := table{Headers: []string{keyHeader, "Sum", "Mean", "Count", "Unique Accounts"}}
	for _, s := range stats {
		t.Rows = append(t.Rows, []string{
			s.Key,
			formatFloat(s.Sum),
			formatFloat(s.Mean),
			formatInt(s.Count),
			formatInt(s.DistinctAccounts),
		})
	}
	return t
}

func groupTotalTable(keyHeader, valueHeader string, groups []dataprocessing.GroupTotal) table {
	t := table{Headers: []string{keyHeader, valueHeader}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{g.Key, formatFloat(g.Value)})
	}
	return t
}

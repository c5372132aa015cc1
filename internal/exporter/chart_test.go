package exporter

import (
	"bytes"
	"context"
	"image/png"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2"

	"txreport/internal/dataprocessing"
	"txreport/internal/shared/testutil"
)

func testChartOptions() ChartOptions {
	return ChartOptions{Width: 800, Height: 600, TopTokens: 10, TopEvents: 5, TopAccounts: 10}
}

func TestChartRenderer_Render(t *testing.T) {
	agg, _ := sampleAggregates(t)

	var buf bytes.Buffer
	require.NoError(t, NewChartRenderer(testChartOptions(), nil).Render(context.Background(), agg, &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestChartRenderer_EmptyPanelsStayBlank(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	var buf bytes.Buffer
	err := NewChartRenderer(testChartOptions(), logger).Render(context.Background(), &dataprocessing.Aggregates{}, &buf)
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})

	assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 4)
	testutil.AssertLogAttr(t, handler, "panel", "Daily Volume Trend")
}

func TestChartRenderer_SinglePointAndFlatSeries(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	agg := &dataprocessing.Aggregates{
		Daily:         []dataprocessing.DailyTotal{{Date: day, Total: 0}},
		TokenVolume:   []dataprocessing.GroupTotal{{Key: "A", Value: 0}, {Key: "B", Value: 0}},
		EventCounts:   []dataprocessing.GroupTotal{{Key: "Deposit", Value: 3}},
		AccountVolume: []dataprocessing.GroupTotal{{Key: "0x1234567890abcdef1234567890abcdef", Value: 5}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewChartRenderer(testChartOptions(), nil).Render(context.Background(), agg, &buf))
	_, err := png.Decode(&buf)
	assert.NoError(t, err)
}

func TestChartRenderer_WriteFile(t *testing.T) {
	agg, _ := sampleAggregates(t)
	path := filepath.Join(t.TempDir(), "report.png")

	require.NoError(t, NewChartRenderer(testChartOptions(), nil).WriteFile(context.Background(), agg, path))
	assert.FileExists(t, path)
}

func TestValueRange(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		fromZero bool
		wantMin  float64
		wantMax  float64
	}{
		{name: "bars start at zero", values: []float64{10, 20}, fromZero: true, wantMin: 0, wantMax: 21},
		{name: "line pads both ends", values: []float64{10, 20}, fromZero: false, wantMin: 9.5, wantMax: 20.5},
		{name: "flat line widened", values: []float64{50}, fromZero: false, wantMin: 45, wantMax: 55},
		{name: "all zero bars", values: []float64{0, 0}, fromZero: true, wantMin: 0, wantMax: 1},
		{name: "negative bars", values: []float64{-10, 10}, fromZero: true, wantMin: -11, wantMax: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := valueRange(tt.values, tt.fromZero)
			assert.InDelta(t, tt.wantMin, lo, 1e-9)
			assert.InDelta(t, tt.wantMax, hi, 1e-9)
			assert.Less(t, lo, hi)
		})
	}
}

func TestSharePieChart_LabelsUsePlottedShare(t *testing.T) {
	pie := sharePieChart("Events", []dataprocessing.GroupTotal{
		{Key: "Deposit", Value: 2},
		{Key: "Withdraw", Value: 1},
	}, 400, 300)
	require.NotNil(t, pie)

	values := pie.(*chart.PieChart).Values
	require.Len(t, values, 2)
	assert.Equal(t, "Deposit (66.7%)", values[0].Label)
	assert.Equal(t, "Withdraw (33.3%)", values[1].Label)
}

func TestChartPanels_NoDataReturnsNil(t *testing.T) {
	assert.Nil(t, dailyVolumeChart("Daily", nil, 400, 300))
	assert.Nil(t, rankedBarChart("Tokens", nil, 400, 300))
	assert.Nil(t, sharePieChart("Events", nil, 400, 300))
}

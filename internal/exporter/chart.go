package exporter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"txreport/internal/dataprocessing"
	apperrors "txreport/internal/errors"
)

// maxLabelRunes bounds axis and slice labels so long addresses stay readable
const maxLabelRunes = 14

var gridStyle = chart.Style{
	StrokeColor: drawing.ColorFromHex("dddddd"),
	StrokeWidth: 1,
}

// ChartOptions sizes the figure and the top-N cut of each ranked panel
type ChartOptions struct {
	Width       int
	Height      int
	TopTokens   int
	TopEvents   int
	TopAccounts int
}

// ChartRenderer draws the 2x2 summary figure.
type ChartRenderer struct {
	opts   ChartOptions
	logger *slog.Logger
}

// NewChartRenderer creates a chart renderer
func NewChartRenderer(opts ChartOptions, logger *slog.Logger) *ChartRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartRenderer{opts: opts, logger: logger}
}

// renderable is satisfied by chart.Chart, chart.BarChart and chart.PieChart
type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

type panel struct {
	title string
	build func(title string, width, height int) renderable
}

// WriteFile renders the figure to a PNG file at path
func (r *ChartRenderer) WriteFile(ctx context.Context, agg *dataprocessing.Aggregates, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewRenderError("failed to create chart file", err).WithContext("file", path)
	}

	if err := r.Render(ctx, agg, file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return apperrors.NewRenderError("failed to write chart file", err).WithContext("file", path)
	}

	r.logger.InfoContext(ctx, "Chart written",
		slog.String("file", path),
		slog.Int("width", r.opts.Width),
		slog.Int("height", r.opts.Height))
	return nil
}

// Render draws the four panels into one PNG on w:
// daily volume, top tokens, top events and top accounts.
// A panel without data is left blank.
func (r *ChartRenderer) Render(ctx context.Context, agg *dataprocessing.Aggregates, w io.Writer) error {
	panelWidth, panelHeight := r.opts.Width/2, r.opts.Height/2

	panels := []panel{
		{
			title: "Daily Volume Trend",
			build: func(title string, width, height int) renderable {
				return dailyVolumeChart(title, agg.Daily, width, height)
			},
		},
		{
			title: fmt.Sprintf("Top %d Tokens by Volume", r.opts.TopTokens),
			build: func(title string, width, height int) renderable {
				return rankedBarChart(title, dataprocessing.TopN(agg.TokenVolume, r.opts.TopTokens), width, height)
			},
		},
		{
			title: fmt.Sprintf("Event Type Distribution (Top %d)", r.opts.TopEvents),
			build: func(title string, width, height int) renderable {
				return sharePieChart(title, dataprocessing.TopN(agg.EventCounts, r.opts.TopEvents), width, height)
			},
		},
		{
			title: fmt.Sprintf("Top %d Addresses by Volume", r.opts.TopAccounts),
			build: func(title string, width, height int) renderable {
				return rankedBarChart(title, dataprocessing.TopN(agg.AccountVolume, r.opts.TopAccounts), width, height)
			},
		},
	}

	canvas := image.NewRGBA(image.Rect(0, 0, panelWidth*2, panelHeight*2))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i, p := range panels {
		c := p.build(p.title, panelWidth, panelHeight)
		if c == nil {
			r.logger.WarnContext(ctx, "Chart panel has no data",
				slog.String("panel", p.title))
			continue
		}

		img, err := rasterize(c)
		if err != nil {
			return apperrors.NewRenderError(fmt.Sprintf("failed to render panel %q", p.title), err).
				WithContext("panel", p.title)
		}

		origin := image.Pt((i%2)*panelWidth, (i/2)*panelHeight)
		bounds := image.Rectangle{Min: origin, Max: origin.Add(img.Bounds().Size())}
		draw.Draw(canvas, bounds, img, img.Bounds().Min, draw.Over)
	}

	if err := png.Encode(w, canvas); err != nil {
		return apperrors.NewRenderError("failed to encode chart", err)
	}
	return nil
}

func rasterize(c renderable) (image.Image, error) {
	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func dailyVolumeChart(title string, daily []dataprocessing.DailyTotal, width, height int) renderable {
	if len(daily) == 0 {
		return nil
	}

	xs := make([]time.Time, len(daily))
	ys := make([]float64, len(daily))
	for i, d := range daily {
		xs[i] = d.Date
		ys[i] = d.Total
	}

	xMin, xMax := timeValue(xs[0]), timeValue(xs[len(xs)-1])
	if xMin == xMax {
		pad := float64(12 * time.Hour)
		xMin, xMax = xMin-pad, xMax+pad
	}
	yMin, yMax := valueRange(ys, false)

	return &chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 30, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: dateValueFormatter,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
			Style:          chart.Style{TextRotationDegrees: 45},
			GridMajorStyle: gridStyle,
		},
		YAxis: chart.YAxis{
			Name:           "Volume",
			Range:          &chart.ContinuousRange{Min: yMin, Max: yMax},
			GridMajorStyle: gridStyle,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Volume",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
					DotColor:    chart.ColorBlue,
					DotWidth:    4,
				},
			},
		},
	}
}

func rankedBarChart(title string, groups []dataprocessing.GroupTotal, width, height int) renderable {
	if len(groups) == 0 {
		return nil
	}

	bars := make([]chart.Value, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		bars[i] = chart.Value{Label: shortenLabel(g.Key, maxLabelRunes), Value: g.Value}
		values[i] = g.Value
	}
	yMin, yMax := valueRange(values, true)

	barWidth := width / (len(bars) * 2)
	if barWidth > 60 {
		barWidth = 60
	}

	return &chart.BarChart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		BarWidth: barWidth,
		XAxis:    chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: yMin, Max: yMax},
			GridMajorStyle: gridStyle,
		},
		Bars: bars,
	}
}

func sharePieChart(title string, groups []dataprocessing.GroupTotal, width, height int) renderable {
	var total float64
	for _, g := range groups {
		total += g.Value
	}
	if len(groups) == 0 || total <= 0 {
		return nil
	}

	slices := make([]chart.Value, 0, len(groups))
	for _, g := range groups {
		if g.Value <= 0 {
			continue
		}
		slices = append(slices, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", shortenLabel(g.Key, maxLabelRunes), g.Value/total*100),
			Value: g.Value,
		})
	}

	return &chart.PieChart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Values: slices,
	}
}

// valueRange returns an axis range covering values. Bar charts start from
// zero; a flat series is widened so the range is never empty.
func valueRange(values []float64, fromZero bool) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if fromZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}

	if hi-lo == 0 {
		pad := math.Max(math.Abs(hi)*0.1, 1)
		if fromZero && lo == 0 {
			return 0, pad
		}
		return lo - pad, hi + pad
	}

	pad := (hi - lo) * 0.05
	if fromZero && lo == 0 {
		return 0, hi + pad
	}
	return lo - pad, hi + pad
}

// timeValue matches the float encoding go-chart uses for time series
func timeValue(t time.Time) float64 {
	return float64(t.UnixNano())
}

func dateValueFormatter(v interface{}) string {
	switch typed := v.(type) {
	case time.Time:
		return formatDate(typed)
	case float64:
		return formatDate(time.Unix(0, int64(typed)))
	}
	return fmt.Sprintf("%v", v)
}

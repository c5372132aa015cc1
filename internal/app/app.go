package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"txreport/internal/config"
	"txreport/internal/dataprocessing"
	"txreport/internal/exporter"
	"txreport/internal/files"
	"txreport/internal/infrastructure"
	"txreport/pkg/contracts"
	"txreport/pkg/contracts/domain"
)

const (
	VERSION = contracts.Version
	AppName = "txreport - transaction export analytics"
)

// Pipeline stage names, used for spans and the stage_duration histogram
const (
	StageResolve   = "resolve_inputs"
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageAggregate = "aggregate"
	StageReport    = "report"
)

// Application runs one report over the configured export files
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	Telemetry  *infrastructure.Telemetry
	Metrics    *infrastructure.PipelineMetrics
	RunMetrics *infrastructure.RunMetrics

	out io.Writer
}

// NewApplication wires the pipeline. Report text is written to out.
func NewApplication(cfg *config.Config, logger *slog.Logger, tel *infrastructure.Telemetry, out io.Writer) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tel == nil {
		tel = infrastructure.NoopTelemetry()
	}

	metrics, err := infrastructure.NewPipelineMetrics(tel.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	runMetrics, err := infrastructure.NewRunMetrics(tel.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create run metrics: %w", err)
	}

	return &Application{
		Config:     cfg,
		Logger:     logger,
		Telemetry:  tel,
		Metrics:    metrics,
		RunMetrics: runMetrics,
		out:        out,
	}, nil
}

// Run executes resolve, load, normalize, aggregate and report in order.
// Nothing is printed when no input file could be loaded.
func (a *Application) Run(ctx context.Context) error {
	start := time.Now()
	ctx, end := a.Telemetry.StartStage(ctx, nil, "report_run")
	err := a.run(ctx, start)
	end(err)
	return err
}

func (a *Application) run(ctx context.Context, start time.Time) error {
	a.Logger.InfoContext(ctx, "Report run started",
		slog.String("version", VERSION),
		slog.Int("inputs", len(a.Config.Input.Files)),
		slog.String("base_dir", a.Config.Input.BaseDir))

	paths := a.resolveInputs(ctx)

	loaded, err := a.load(ctx, paths)
	if err != nil {
		return err
	}

	table, stats := a.normalize(ctx, loaded.Records)
	defer table.Release()

	agg := a.aggregate(ctx, table)

	if err := a.report(ctx, stats, agg); err != nil {
		return err
	}

	a.Logger.InfoContext(ctx, "Report run completed",
		slog.Int("files_loaded", len(loaded.Loaded)),
		slog.Int("files_skipped", len(loaded.Skipped)),
		slog.Int("rows", stats.TotalRows),
		slog.Any("resources", a.RunMetrics.Collect(ctx, start)))
	return nil
}

func (a *Application) resolveInputs(ctx context.Context) []string {
	ctx, end := a.Telemetry.StartStage(ctx, a.Metrics, StageResolve)
	defer end(nil)

	res := files.NewDiscovery(a.Config.Input.BaseDir).ResolveInputs(a.Config.Input.Files)
	for _, u := range res.Unmatched {
		a.Logger.WarnContext(ctx, "Skipping input pattern",
			slog.String("file", u.Pattern),
			slog.String("error", u.Err.Error()))
	}
	if n := len(res.Unmatched); n > 0 {
		a.Metrics.FilesSkipped.Add(ctx, int64(n))
	}
	return res.Paths
}

func (a *Application) load(ctx context.Context, paths []string) (result *dataprocessing.LoadResult, err error) {
	ctx, end := a.Telemetry.StartStage(ctx, a.Metrics, StageLoad)
	defer func() { end(err) }()

	loader := dataprocessing.NewLoader(a.Logger, a.Config.Input.DelimiterRune())
	result, err = loader.Load(ctx, paths)

	a.Metrics.FilesLoaded.Add(ctx, int64(len(result.Loaded)))
	a.Metrics.FilesSkipped.Add(ctx, int64(len(result.Skipped)))
	a.Metrics.RowsLoaded.Add(ctx, int64(len(result.Records)))
	return result, err
}

func (a *Application) normalize(ctx context.Context, records []domain.TransactionRecord) (*dataprocessing.Table, dataprocessing.NormalizationStats) {
	ctx, end := a.Telemetry.StartStage(ctx, a.Metrics, StageNormalize)
	defer end(nil)

	table, stats := dataprocessing.NewNormalizer(a.Logger).Normalize(ctx, records)
	a.Metrics.TimestampsMissing.Add(ctx, int64(stats.MissingTimestamps))
	return table, stats
}

func (a *Application) aggregate(ctx context.Context, table *dataprocessing.Table) *dataprocessing.Aggregates {
	ctx, end := a.Telemetry.StartStage(ctx, a.Metrics, StageAggregate)
	defer end(nil)

	agg := dataprocessing.Aggregate(table)
	a.Logger.DebugContext(ctx, "Aggregates computed",
		slog.Int("days", len(agg.Daily)),
		slog.Int("tokens", len(agg.TokenVolume)),
		slog.Int("events", len(agg.EventCounts)),
		slog.Int("accounts", len(agg.AccountVolume)))
	return agg
}

func (a *Application) report(ctx context.Context, stats dataprocessing.NormalizationStats, agg *dataprocessing.Aggregates) (err error) {
	ctx, end := a.Telemetry.StartStage(ctx, a.Metrics, StageReport)
	defer func() { end(err) }()

	return exporter.NewReporter(a.Config.Report, a.out, a.Logger).Report(ctx, stats, agg)
}

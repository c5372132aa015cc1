package exporter

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"txreport/internal/config"
	"txreport/internal/dataprocessing"
	apperrors "txreport/internal/errors"
	"txreport/internal/validation"
)

// Reporter writes every report output for one run.
type Reporter struct {
	cfg       config.ReportConfig
	console   *ConsoleWriter
	chart     *ChartRenderer
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewReporter creates a reporter printing to out
func NewReporter(cfg config.ReportConfig, out io.Writer, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "reporter"))

	return &Reporter{
		cfg:     cfg,
		console: NewConsoleWriter(out),
		chart: NewChartRenderer(ChartOptions{
			Width:       cfg.ChartWidth,
			Height:      cfg.ChartHeight,
			TopTokens:   cfg.TopTokens,
			TopEvents:   cfg.TopEvents,
			TopAccounts: cfg.TopAccounts,
		}, logger),
		validator: validation.NewFileValidator(logger),
		logger:    logger,
	}
}

// Report prints the timestamp statistics, the summary and the detail tables,
// then writes the chart and the optional workbook and CSV exports. File
// outputs are all attempted; their failures are joined in the returned error.
func (r *Reporter) Report(ctx context.Context, stats dataprocessing.NormalizationStats, agg *dataprocessing.Aggregates) error {
	r.console.PrintTimestampStats(stats)
	r.console.PrintSummary(agg.Summary)
	r.console.PrintGroupStats("TOKEN STATISTICS", "Token", agg.TokenStats)
	r.console.PrintGroupStats("EVENT STATISTICS", "Event", agg.EventStats)

	var errs []error

	if err := r.writeChart(ctx, agg); err != nil {
		errs = append(errs, err)
	}

	if r.cfg.WorkbookPath != "" {
		if err := r.writeWorkbook(ctx, agg); err != nil {
			errs = append(errs, err)
		}
	}

	if r.cfg.CSVDir != "" {
		if err := r.writeCSV(ctx, agg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (r *Reporter) writeChart(ctx context.Context, agg *dataprocessing.Aggregates) error {
	if err := r.validator.ValidateOutputPath(r.cfg.ChartPath); err != nil {
		return r.failed(ctx, "chart", r.cfg.ChartPath, apperrors.NewRenderError("chart path is not writable", err))
	}
	if err := r.chart.WriteFile(ctx, agg, r.cfg.ChartPath); err != nil {
		return r.failed(ctx, "chart", r.cfg.ChartPath, err)
	}
	return nil
}

func (r *Reporter) writeWorkbook(ctx context.Context, agg *dataprocessing.Aggregates) error {
	if err := r.validator.ValidateOutputPath(r.cfg.WorkbookPath); err != nil {
		return r.failed(ctx, "workbook", r.cfg.WorkbookPath, apperrors.NewExportError("workbook path is not writable", err))
	}
	if err := NewWorkbookWriter(r.logger).Write(ctx, agg, r.cfg.WorkbookPath); err != nil {
		return r.failed(ctx, "workbook", r.cfg.WorkbookPath, err)
	}
	return nil
}

func (r *Reporter) writeCSV(ctx context.Context, agg *dataprocessing.Aggregates) error {
	if err := r.validator.ValidateOutputDirectory(r.cfg.CSVDir); err != nil {
		return r.failed(ctx, "csv", r.cfg.CSVDir, apperrors.NewExportError("csv directory is not writable", err))
	}
	if err := NewCSVWriter(r.cfg.CSVDir, r.logger).ExportAggregates(agg); err != nil {
		return r.failed(ctx, "csv", r.cfg.CSVDir, err)
	}
	return nil
}

func (r *Reporter) failed(ctx context.Context, output, path string, err error) error {
	r.logger.ErrorContext(ctx, "Report output failed",
		slog.String("output", output),
		slog.String("path", path),
		slog.String("error", err.Error()))
	return err
}

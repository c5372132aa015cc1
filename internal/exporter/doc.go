// Package exporter writes the transaction report.
//
// This package contains the following components:
//
// ConsoleWriter: prints timestamp conversion counts, the summary statistics
// and the per-token and per-event detail tables.
//
// ChartRenderer: draws the 2x2 figure (daily volume, top tokens, event share,
// top addresses) as a PNG using go-chart.
//
// WorkbookWriter: exports the aggregates to an XLSX workbook, one sheet per table.
//
// CSVWriter: core CSV writing with headers, streaming and a UTF-8 BOM for
// Excel compatibility, plus ExportAggregates for the per-table CSV files.
//
// Reporter runs all of them for one run:
//
//	reporter := exporter.NewReporter(cfg.Report, os.Stdout, logger)
//	if err := reporter.Report(ctx, stats, agg); err != nil {
//	    // chart, workbook or CSV output failed; the console report is already printed
//	}
package exporter

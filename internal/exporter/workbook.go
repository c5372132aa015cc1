package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"txreport/internal/dataprocessing"
	apperrors "txreport/internal/errors"
)

// Workbook sheet names, in tab order
const (
	SheetSummary  = "Summary"
	SheetDaily    = "Daily"
	SheetTokens   = "Tokens"
	SheetEvents   = "Events"
	SheetAccounts = "Accounts"
)

// WorkbookWriter exports the aggregates as an XLSX workbook.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// Write saves the workbook at path. Numeric cells are stored as numbers so
// the sheets can be sorted and charted in a spreadsheet.
func (w *WorkbookWriter) Write(ctx context.Context, agg *dataprocessing.Aggregates, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return apperrors.NewExportError("failed to create workbook", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewExportError("failed to create header style", err)
	}

	sheets := []struct {
		name string
		t    table
	}{
		{SheetSummary, summaryTable(agg.Summary)},
		{SheetDaily, dailyTable(agg.Daily)},
		{SheetTokens, groupStatsTable("Token", agg.TokenStats)},
		{SheetEvents, groupStatsTable("Event", agg.EventStats)},
		{SheetAccounts, groupTotalTable("Account", "Volume", agg.AccountVolume)},
	}

	for _, s := range sheets {
		if s.name != SheetSummary {
			if _, err := f.NewSheet(s.name); err != nil {
				return apperrors.NewExportError(fmt.Sprintf("failed to add sheet %s", s.name), err)
			}
		}
		if err := writeSheet(f, s.name, s.t, headerStyle); err != nil {
			return apperrors.NewExportError(fmt.Sprintf("failed to write sheet %s", s.name), err).
				WithContext("file", path)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewExportError("failed to save workbook", err).WithContext("file", path)
	}

	w.logger.InfoContext(ctx, "Workbook written",
		slog.String("file", path),
		slog.Int("sheets", len(sheets)))
	return nil
}

// writeSheet writes t with a bold header row. Every column after the first
// holds numbers.
func writeSheet(f *excelize.File, sheet string, t table, headerStyle int) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for c, v := range row {
			cells[c] = cellValue(v, c > 0)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return nil
}

// cellValue stores numeric text as a number; NaN becomes an empty cell
func cellValue(s string, numeric bool) interface{} {
	if !numeric {
		return s
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return ""
	}
	return v
}

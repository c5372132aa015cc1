package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "txreport/internal/errors"
	"txreport/internal/validation"
	"txreport/pkg/contracts/domain"
)

// FileSummary describes an input file that loaded
type FileSummary struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// SkippedFile describes an input that could not be loaded
type SkippedFile struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// LoadResult is the concatenation of every file that loaded, in input order.
type LoadResult struct {
	Records []domain.TransactionRecord
	Loaded  []FileSummary
	Skipped []SkippedFile
}

// Loader reads transaction export files into records.
type Loader struct {
	logger    *slog.Logger
	validator *validation.FileValidator
	delimiter rune
}

// NewLoader creates a loader for delimited files using the given field
// separator. Workbook inputs ignore the delimiter.
func NewLoader(logger *slog.Logger, delimiter rune) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if delimiter == 0 {
		delimiter = ','
	}
	logger = logger.With(slog.String("component", "loader"))
	return &Loader{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
		delimiter: delimiter,
	}
}

// Load reads each path in order. A file that fails is reported and skipped;
// the remaining files still load. When no file loads at all the returned
// error is ErrNoInputLoaded.
func (l *Loader) Load(ctx context.Context, paths []string) (*LoadResult, error) {
	result := &LoadResult{}

	for _, path := range paths {
		records, err := l.LoadFile(path)
		if err != nil {
			l.logger.WarnContext(ctx, "Skipping input file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Err: err})
			continue
		}

		l.logger.InfoContext(ctx, "Loaded input file",
			slog.String("file", path),
			slog.Int("rows", len(records)))
		result.Records = append(result.Records, records...)
		result.Loaded = append(result.Loaded, FileSummary{Path: path, Rows: len(records)})
	}

	if len(result.Loaded) == 0 {
		l.logger.ErrorContext(ctx, "No input file could be loaded",
			slog.Int("attempted", len(paths)),
			slog.Int("skipped", len(result.Skipped)))
		return result, apperrors.ErrNoInputLoaded
	}

	l.logger.InfoContext(ctx, "Input load complete",
		slog.Int("files_loaded", len(result.Loaded)),
		slog.Int("files_skipped", len(result.Skipped)),
		slog.Int("rows", len(result.Records)))
	return result, nil
}

// LoadFile reads a single export file.
func (l *Loader) LoadFile(path string) ([]domain.TransactionRecord, error) {
	format, err := l.validator.ValidateInputFile(path)
	if err != nil {
		return nil, apperrors.NewLoadError(path, err)
	}

	var rows [][]string
	switch format {
	case validation.FormatWorkbook:
		rows, err = readWorkbook(path)
	default:
		rows, err = l.readDelimited(path)
	}
	if err != nil {
		return nil, apperrors.NewLoadError(path, err)
	}

	return decodeRows(path, rows)
}

func (l *Loader) readDelimited(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// BOMOverride switches to UTF-16 when a UTF-16 mark is present and
	// strips a UTF-8 mark, so the first header name is clean.
	decoded := transform.NewReader(file, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.Comma = l.delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited text: %w", err)
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// decodeRows maps the header row onto the required columns and converts each
// data row into a record.
func decodeRows(path string, rows [][]string) ([]domain.TransactionRecord, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewLoadError(path, fmt.Errorf("no header row"))
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, byteOrderMark))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range domain.RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(path, missing)
	}

	records := make([]domain.TransactionRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		// line numbers count the header as line 1
		line := n + 2
		if len(row) > len(header) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("%s line %d: expected %d fields, saw %d", path, line, len(header), len(row)), nil).
				WithContext("file", path).
				WithContext("line", line)
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(row) || IsMissingToken(row[i]) {
				return ""
			}
			return row[i]
		}

		amount, amountValid, err := parseAmount(cell(domain.ColumnAmount))
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("%s line %d: invalid %s", path, line, domain.ColumnAmount), err).
				WithContext("file", path).
				WithContext("line", line)
		}

		records = append(records, domain.TransactionRecord{
			SourceFile:   path,
			RawTimestamp: cell(domain.ColumnBlockTimestamp),
			Amount:       amount,
			AmountValid:  amountValid,
			TxHash:       cell(domain.ColumnTxHash),
			Account:      cell(domain.ColumnAccount),
			Token:        cell(domain.ColumnToken),
			Event:        cell(domain.ColumnEvent),
		})
	}

	return records, nil
}

// parseAmount reads an AMOUNT cell. An empty cell is missing, not zero.
func parseAmount(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

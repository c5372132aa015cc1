package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"txreport/internal/dataprocessing"
	apperrors "txreport/internal/errors"
)

// CSV export file names, written under the configured directory
const (
	DailyVolumeFile   = "daily_volume.csv"
	TokenStatsFile    = "token_stats.csv"
	EventStatsFile    = "event_stats.csv"
	AccountVolumeFile = "account_volume.csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer rooted at dir
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSimpleCSV writes a CSV file with headers, records and a BOM
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// StreamWriter provides streaming CSV writing for large tables
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// ExportAggregates writes the daily, token, event and account tables as
// separate CSV files. The account table is streamed since it has one row
// per distinct account.
func (w *CSVWriter) ExportAggregates(agg *dataprocessing.Aggregates) error {
	files := []struct {
		name string
		t    table
	}{
		{DailyVolumeFile, dailyTable(agg.Daily)},
		{TokenStatsFile, groupStatsTable("Token", agg.TokenStats)},
		{EventStatsFile, groupStatsTable("Event", agg.EventStats)},
	}

	for _, f := range files {
		if err := w.WriteSimpleCSV(f.name, f.t.Headers, f.t.Rows); err != nil {
			return apperrors.NewExportError(fmt.Sprintf("failed to write %s", f.name), err).
				WithContext("file", w.resolvePath(f.name))
		}
	}

	if err := w.writeAccountVolume(agg.AccountVolume); err != nil {
		return apperrors.NewExportError(fmt.Sprintf("failed to write %s", AccountVolumeFile), err).
			WithContext("file", w.resolvePath(AccountVolumeFile))
	}

	w.logger.Info("CSV exports written",
		slog.String("directory", w.dir),
		slog.Int("files", len(files)+1))
	return nil
}

func (w *CSVWriter) writeAccountVolume(groups []dataprocessing.GroupTotal) error {
	t := groupTotalTable("Account", "Volume", groups)

	stream, err := w.CreateStreamWriter(AccountVolumeFile, t.Headers)
	if err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := stream.WriteRecord(row); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}

// resolvePath places relative paths under the writer's directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.dir == "" {
		return filePath
	}
	return filepath.Join(w.dir, filePath)
}

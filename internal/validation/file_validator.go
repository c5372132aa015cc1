package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// InputFormat is the decoder used for an input file
type InputFormat string

const (
	FormatDelimited InputFormat = "delimited"
	FormatWorkbook  InputFormat = "workbook"
)

// FileValidator provides file checks shared by the loader and the report writers
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path is a readable regular file and reports
// which decoder applies to it. Unknown extensions are treated as delimited text.
func (v *FileValidator) ValidateInputFile(path string) (InputFormat, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return "", fmt.Errorf("file %s is a temporary office lock file", path)
	}

	format := FormatDelimited
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		format = FormatWorkbook
	case ".csv", ".tsv", ".txt":
	default:
		v.logger.Debug("Unknown input extension, reading as delimited text",
			slog.String("file", path))
	}

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()),
		slog.String("format", string(format)))
	return format, nil
}

// ValidateOutputPath ensures the parent directory of path exists and is writable
func (v *FileValidator) ValidateOutputPath(path string) error {
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

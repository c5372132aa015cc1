package config

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "txreport/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "TXREPORT"

// Config represents the complete application configuration
type Config struct {
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// InputConfig lists the export files to analyse
type InputConfig struct {
	BaseDir   string   `yaml:"base_dir" envconfig:"BASE_DIR"`
	Files     []string `yaml:"files" envconfig:"FILES" validate:"required,min=1,dive,required"`
	Delimiter string   `yaml:"delimiter" envconfig:"DELIMITER" validate:"required"`
}

// ReportConfig controls the console report, figure and optional exports
type ReportConfig struct {
	ChartPath    string `yaml:"chart_path" envconfig:"CHART_PATH" validate:"required"`
	ChartWidth   int    `yaml:"chart_width" envconfig:"CHART_WIDTH" validate:"min=200"`
	ChartHeight  int    `yaml:"chart_height" envconfig:"CHART_HEIGHT" validate:"min=200"`
	WorkbookPath string `yaml:"workbook_path" envconfig:"WORKBOOK_PATH"`
	CSVDir       string `yaml:"csv_dir" envconfig:"CSV_DIR"`
	TopTokens    int    `yaml:"top_tokens" envconfig:"TOP_TOKENS" validate:"min=1"`
	TopEvents    int    `yaml:"top_events" envconfig:"TOP_EVENTS" validate:"min=1"`
	TopAccounts  int    `yaml:"top_accounts" envconfig:"TOP_ACCOUNTS" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout file"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=TraceExporter file"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// DefaultInputFiles are the query-result exports the report was built around.
var DefaultInputFiles = []string{
	"download-query-results-9ff20136-4acd-485e-b26e-a39ae68c8b92 (1).csv",
	"download-query-results-9ff20136-4acd-485e-b26e-a39ae68c8b92 (2).csv",
	"download-query-results-9ff20136-4acd-485e-b26e-a39ae68c8b92.csv",
	"download-query-results-efd8d74c-e583-48ec-b3ae-4a0e66f1b4fb.csv",
}

// Default returns default configuration
func Default() *Config {
	files := make([]string, len(DefaultInputFiles))
	copy(files, DefaultInputFiles)

	return &Config{
		Input: InputConfig{
			Files:     files,
			Delimiter: ",",
		},
		Report: ReportConfig{
			ChartPath:   "transaction_report.png",
			ChartWidth:  1500,
			ChartHeight: 1000,
			TopTokens:   10,
			TopEvents:   5,
			TopAccounts: 10,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/txreport.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "txreport",
			TraceExporter: "none",
		},
	}
}

// Load loads configuration from defaults, an optional YAML file and environment
// variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("file", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML values from filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and the delimiter rune
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return apperrors.NewConfigError(
			fmt.Sprintf("delimiter must be a single character, got %q", c.Input.Delimiter), nil)
	}
	if c.Logging.Output != "console" && strings.TrimSpace(c.Logging.FilePath) == "" {
		return apperrors.NewConfigError("logging file path is required for file output", nil)
	}

	return nil
}

// DelimiterRune returns the configured field delimiter
func (c InputConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"txreport.yaml",
		"configs/txreport.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

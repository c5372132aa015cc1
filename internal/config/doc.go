// Package config provides configuration loading for the transaction report.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources overriding
// earlier ones:
//
//	1. Default values (the fixed list of export files, top-N sizes, chart path)
//	2. A YAML file: $TXREPORT_CONFIG_FILE, txreport.yaml or configs/txreport.yaml
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern TXREPORT_<SECTION>_<FIELD>:
//
//	TXREPORT_INPUT_FILES=export-a.csv,export-b.csv
//	TXREPORT_INPUT_DELIMITER=;
//	TXREPORT_REPORT_CHART_PATH=out/report.png
//	TXREPORT_REPORT_WORKBOOK_PATH=out/report.xlsx
//	TXREPORT_LOGGING_LEVEL=debug
//	TXREPORT_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/txreport.prom
//
// With no file and no environment, the defaults reproduce the original
// one-shot analysis of four query exports in the working directory.
package config

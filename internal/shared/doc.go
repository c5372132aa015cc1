// Package shared holds helpers used across the txreport packages.
//
// testutil provides a buffered slog handler so tests can assert on the
// diagnostics a component emits:
//
//	logger, handler := testutil.NewTestLogger(t)
//	loader := dataprocessing.NewLoader(logger, ',')
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Skipping input file")
//	testutil.AssertLogAttr(t, handler, "file", path)
package shared

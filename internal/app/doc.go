// Package app wires the report pipeline and runs it once over the configured
// transaction export files.
//
// # Pipeline
//
// Run executes the stages in order on a single goroutine:
//
//  1. resolve_inputs: expand configured entries and glob patterns
//  2. load: read every file, skipping the ones that cannot be loaded
//  3. normalize: parse timestamps into the columnar table
//  4. aggregate: compute the scalar, daily and per-group statistics
//  5. report: print the console report, draw the figure, write optional exports
//
// Each stage runs inside an OpenTelemetry span and records its duration in the
// stage_duration histogram. File and row counters are updated from the stage
// results, and the run's resource usage is logged when it completes.
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger, tel, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	if err := application.Run(ctx); err != nil {
//	    return err
//	}
//
// When no input file can be loaded Run returns errors.ErrNoInputLoaded and
// prints nothing.
package app

// Package dataprocessing turns transaction export files into report statistics.
//
// # Architecture
//
// The package is organized into three stages that run in order:
//
// 1. Loader: reads CSV or XLSX exports into records, skipping files that fail
// 2. Normalizer: cleans and parses timestamps into an Arrow-backed Table
// 3. Aggregator: computes scalar, daily and grouped statistics over the Table
//
// # Usage
//
//	result, err := dataprocessing.NewLoader(logger, ',').Load(ctx, paths)
//	if err != nil {
//	    return err // errors.ErrNoInputLoaded when nothing could be read
//	}
//
//	table, stats := dataprocessing.NewNormalizer(logger).Normalize(ctx, result.Records)
//	defer table.Release()
//
//	agg := dataprocessing.Aggregate(table)
//	top := dataprocessing.TopN(agg.TokenVolume, 10)
//
// # Missing values
//
// Empty cells and placeholders such as "NaN" or "null" are missing. Missing
// amounts add nothing to sums and are not counted in per-group counts;
// missing identifiers are neither a distinct value nor a group.
package dataprocessing

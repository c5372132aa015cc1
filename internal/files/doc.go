// Package files resolves the configured input entries into concrete file paths.
//
// Entries are taken relative to a base directory. Entries containing glob
// metacharacters (*, ?, [) expand to their sorted matches; plain entries are
// passed through untouched so that a missing file is reported by the loader
// rather than silently dropped here.
package files

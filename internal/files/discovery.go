package files

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// UnmatchedPattern records a glob entry that matched no files
type UnmatchedPattern struct {
	Pattern string
	Err     error
}

// Resolution is the outcome of resolving input entries
type Resolution struct {
	Paths     []string
	Unmatched []UnmatchedPattern
}

// Discovery provides input path resolution relative to a base directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// ResolveInputs turns configured entries into an ordered, de-duplicated path list.
func (d *Discovery) ResolveInputs(entries []string) Resolution {
	var res Resolution
	seen := make(map[string]bool)

	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		res.Paths = append(res.Paths, path)
	}

	for _, entry := range entries {
		fullPath := d.resolve(entry)

		if !isPattern(entry) {
			add(fullPath)
			continue
		}

		matches, err := filepath.Glob(fullPath)
		if err != nil {
			res.Unmatched = append(res.Unmatched, UnmatchedPattern{Pattern: entry, Err: fmt.Errorf("invalid pattern: %w", err)})
			continue
		}
		if len(matches) == 0 {
			res.Unmatched = append(res.Unmatched, UnmatchedPattern{Pattern: entry, Err: fmt.Errorf("no files match %s", fullPath)})
			continue
		}

		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}

	return res
}

// resolve joins relative entries onto the base path
func (d *Discovery) resolve(entry string) string {
	if filepath.IsAbs(entry) || d.basePath == "" {
		return entry
	}
	return filepath.Join(d.basePath, entry)
}

// isPattern reports whether entry uses glob syntax. Parentheses common in
// browser download names ("export (1).csv") are literal.
func isPattern(entry string) bool {
	return strings.ContainsAny(entry, "*?[")
}

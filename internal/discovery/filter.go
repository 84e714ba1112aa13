package discovery

import (
	"path/filepath"
	"strings"
)

// Filter narrows down script files
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName keeps files whose base name matches pattern. Patterns with
// wildcards like "*calc*" or "math_*_test.gos" match glob style, falling back
// to requiring every literal part in the name; plain patterns match as a
// substring.
func (f *Filter) FilterByName(files []string, pattern string) []string {
	if pattern == "" {
		return files
	}

	var filtered []string
	for _, file := range files {
		if matchName(filepath.Base(file), pattern) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}

// FilterFailed keeps files that failed in a previous run. Paths are compared
// after cleaning.
func (f *Filter) FilterFailed(files, failed []string) []string {
	previous := make(map[string]bool, len(failed))
	for _, file := range failed {
		previous[filepath.Clean(file)] = true
	}

	var filtered []string
	for _, file := range files {
		if previous[filepath.Clean(file)] {
			filtered = append(filtered, file)
		}
	}
	return filtered
}

func matchName(name, pattern string) bool {
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(name, pattern)
	}
	if !strings.Contains(pattern, "*") {
		return false
	}

	literal := false
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		if !strings.Contains(name, part) {
			return false
		}
		literal = true
	}
	return literal
}

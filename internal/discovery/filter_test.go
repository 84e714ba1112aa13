package discovery

import (
	"testing"
)

func TestFilter_FilterByName(t *testing.T) {
	filter := NewFilter()
	files := []string{"calc_test.gos", "matrix_test.gos", "http_test.gos", "calc_extra_test.gos"}

	tests := []struct {
		name     string
		files    []string
		pattern  string
		expected int
	}{
		{name: "empty pattern returns all", files: files, pattern: "", expected: 4},
		{name: "glob pattern", files: files, pattern: "calc_*", expected: 2},
		{name: "wildcard substring", files: files, pattern: "*matrix*", expected: 1},
		{name: "simple contains match", files: files, pattern: "http", expected: 1},
		{name: "no matches", files: files, pattern: "*missing*", expected: 0},
		{name: "only wildcards", files: files, pattern: "**", expected: 4},
		{name: "full path is matched on base name", files: []string{"/srv/math/calc_test.gos", "/srv/calc/http_test.gos"}, pattern: "calc*", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.FilterByName(tt.files, tt.pattern)
			if len(result) != tt.expected {
				t.Errorf("expected %d matches, got %d: %v", tt.expected, len(result), result)
			}
		})
	}
}

func TestFilter_FilterFailed(t *testing.T) {
	filter := NewFilter()

	files := []string{"tests/calc_test.gos", "tests/http_test.gos", "tests/matrix_test.gos"}
	failed := []string{"./tests/http_test.gos", "tests/removed_test.gos"}

	result := filter.FilterFailed(files, failed)
	if len(result) != 1 || result[0] != "tests/http_test.gos" {
		t.Errorf("expected only tests/http_test.gos, got %v", result)
	}

	if result := filter.FilterFailed(files, nil); len(result) != 0 {
		t.Errorf("expected nothing without previous failures, got %v", result)
	}
}

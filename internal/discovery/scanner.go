package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scanner scans for script test files in a directory
type Scanner struct {
	suffix   string
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner matching files ending in suffix and
// skipping the given directory names
func NewScanner(suffix string, skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{suffix: suffix, skipDirs: skipMap}
}

// Scan finds all script test files below root, in lexical order. A root that
// is itself a test file is returned as is.
func (s *Scanner) Scan(root string) ([]string, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test path does not exist: %s", root)
	}
	if !info.IsDir() {
		if strings.HasSuffix(root, s.suffix) {
			return []string{root}, nil
		}
		return nil, fmt.Errorf("test path is neither a directory nor a %s file: %s", s.suffix, root)
	}

	var testFiles []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if s.skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(d.Name(), s.suffix) {
			testFiles = append(testFiles, path)
		}
		return nil
	})

	return testFiles, err
}

package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"scriptunit/internal/domain"
	"scriptunit/internal/script"
)

// Lister reports the test cases of script files without running them
type Lister struct {
	loader     script.Loader
	candidates *Candidates
}

// NewLister creates a new Lister
func NewLister(loader script.Loader, logger *zap.Logger) *Lister {
	return &Lister{loader: loader, candidates: NewCandidates(logger)}
}

// FindSuites loads a script file and returns its suites in discovery order
func (l *Lister) FindSuites(ctx context.Context, filePath string) ([]*domain.TestSuite, error) {
	env, err := l.loader.Load(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("error loading file %s: %w", filePath, err)
	}
	return l.candidates.Scan(env)
}

// FindTestCases returns every test of every suite in a script file
func (l *Lister) FindTestCases(ctx context.Context, filePath string) ([]domain.TestCase, error) {
	suites, err := l.FindSuites(ctx, filePath)
	if err != nil {
		return nil, err
	}

	var testCases []domain.TestCase
	for _, suite := range suites {
		for _, test := range suite.Tests {
			testCases = append(testCases, domain.TestCase{
				Suite:    suite.Name,
				Name:     test.Name,
				FilePath: filePath,
			})
		}
	}
	return testCases, nil
}

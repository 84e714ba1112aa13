package discovery

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"scriptunit/internal/annotation"
	"scriptunit/internal/domain"
	"scriptunit/internal/script"
)

// Candidates finds test suites among the bindings of a script environment
type Candidates struct {
	logger *zap.Logger
}

// NewCandidates creates a new Candidates scanner
func NewCandidates(logger *zap.Logger) *Candidates {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Candidates{logger: logger}
}

// IsTestSuite reports whether value is an object carrying the unit test marker.
// It never panics, whatever the host hands in.
func IsTestSuite(value any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	obj, isObject := value.(script.Object)
	if !isObject || obj == nil {
		return false
	}
	_, ok = obj.Lookup(script.MarkerUnitTest)
	return ok
}

// Scan returns the test suites of env in binding order
func (c *Candidates) Scan(env script.Environment) ([]*domain.TestSuite, error) {
	bindings, err := env.Bindings()
	if err != nil {
		return nil, fmt.Errorf("enumerate bindings: %w", err)
	}

	var suites []*domain.TestSuite
	for _, binding := range bindings {
		if !IsTestSuite(binding.Value) {
			continue
		}
		suites = append(suites, c.buildSuite(binding.Name, binding.Value.(script.Object)))
	}

	return suites, nil
}

func (c *Candidates) buildSuite(name string, obj script.Object) *domain.TestSuite {
	suite := &domain.TestSuite{Name: name}

	if description, ok := obj.Lookup(script.MarkerDescription); ok {
		suite.Description = script.Stringify(description)
	}
	if reason, ok := obj.Lookup(script.MarkerIgnore); ok {
		suite.IgnoreReason = script.Stringify(reason)
	}

	for _, m := range obj.Members() {
		callable, ok := m.Value.(script.Callable)
		if !ok {
			continue
		}

		member := &domain.TestMember{
			Name:        m.Name,
			Annotations: annotation.Extract(callable.Source()),
			Callable:    callable,
		}
		member.Role = Classify(member.Name, member.Annotations)

		switch member.Role {
		case domain.RoleBefore:
			suite.Before = c.assignHook(suite, suite.Before, member)
		case domain.RoleAfter:
			suite.After = c.assignHook(suite, suite.After, member)
		case domain.RoleBeforeClass:
			suite.BeforeClass = c.assignHook(suite, suite.BeforeClass, member)
		case domain.RoleAfterClass:
			suite.AfterClass = c.assignHook(suite, suite.AfterClass, member)
		case domain.RoleTest:
			suite.Tests = append(suite.Tests, member)
		}
	}

	return suite
}

// assignHook keeps the last scanned member for a hook slot and warns about the
// one it replaces.
func (c *Candidates) assignHook(suite *domain.TestSuite, current, next *domain.TestMember) *domain.TestMember {
	if current != nil {
		c.logger.Warn("multiple members annotated for the same hook, last one wins",
			zap.String("suite", suite.Name),
			zap.String("role", string(next.Role)),
			zap.String("replaced", current.Name),
			zap.String("member", next.Name),
		)
	}
	return next
}

// Classify decides the role of a suite member from its annotations, falling
// back to the test* naming convention.
func Classify(name string, annotations annotation.Annotations) domain.Role {
	switch {
	case annotations.Has(annotation.Before):
		return domain.RoleBefore
	case annotations.Has(annotation.After):
		return domain.RoleAfter
	case annotations.Has(annotation.BeforeClass):
		return domain.RoleBeforeClass
	case annotations.Has(annotation.AfterClass):
		return domain.RoleAfterClass
	case annotations.Has(annotation.Test), strings.HasPrefix(name, "test"):
		return domain.RoleTest
	default:
		return domain.RoleExcluded
	}
}

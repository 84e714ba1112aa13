package domain

import (
	"scriptunit/internal/annotation"
	"scriptunit/internal/script"
)

// Role is the part a suite member plays in a run.
type Role string

const (
	RoleTest        Role = "test"
	RoleBefore      Role = "before"
	RoleAfter       Role = "after"
	RoleBeforeClass Role = "beforeClass"
	RoleAfterClass  Role = "afterClass"
	RoleExcluded    Role = "excluded"
)

// TestMember is one callable of a suite with its extracted annotations.
type TestMember struct {
	Name        string
	Role        Role
	Annotations annotation.Annotations
	Callable    script.Callable
}

// Description returns the @description payload of the member.
func (m *TestMember) Description() string {
	return m.Annotations.Description()
}

// TestSuite is a discovered script object carrying the unit test marker.
type TestSuite struct {
	Name         string
	Description  string
	IgnoreReason string

	// Tests is the run plan in discovery order.
	Tests []*TestMember

	Before      *TestMember
	After       *TestMember
	BeforeClass *TestMember
	AfterClass  *TestMember
}

// Ignored reports whether the whole suite is ignored.
func (s *TestSuite) Ignored() bool {
	return s.IgnoreReason != ""
}

// TestCase names a single test inside a script file, used for listings.
type TestCase struct {
	Suite    string
	Name     string
	FilePath string
}

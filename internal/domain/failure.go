package domain

// TestFailure represents a failed, errored or broken test case
type TestFailure struct {
	TestName   string   `json:"test_name"`
	SuiteName  string   `json:"suite_name,omitempty"`
	FilePath   string   `json:"file_path"`
	Status     Status   `json:"status"`
	StackTrace []string `json:"stack_trace"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Message    string   `json:"message"`
	Resolved   bool     `json:"resolved,omitempty"` // Track if test case is marked as resolved
}

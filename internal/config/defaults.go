package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultTestPath is the default test path
	DefaultTestPath = "."
	// DefaultScriptSuffix is the file name suffix of test scripts
	DefaultScriptSuffix = "_test.gos"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "test-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultDefinitionFile is the suite definition looked up in the project
	DefaultDefinitionFile = "scriptunit.yaml"
	// DefaultTimeout applies to tests without a @timeout annotation; 0 disables it
	DefaultTimeout = 0 * time.Second
	// DefaultHistoryLimit is how many runs the history command shows
	DefaultHistoryLimit = 20
	// DefaultWatchDebounce groups bursts of file events into one rerun
	DefaultWatchDebounce = 300 * time.Millisecond
)

// Environment variables read from the process and the project .env file
const (
	EnvTimeout         = "SCRIPTUNIT_TIMEOUT"
	EnvPromoteFailures = "SCRIPTUNIT_PROMOTE_FAILURES"
	EnvHistoryDSN      = "SCRIPTUNIT_HISTORY_DSN"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"vendor",
	"node_modules",
	"storage",
	"testdata",
}

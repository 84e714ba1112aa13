package cli

import (
	"time"

	"scriptunit/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	ProjectPath    string
	DefinitionPath string
	Verbose        bool

	TestPath     string
	NameFilter   string
	TestCases    bool
	FailFast     bool
	OnlyFailed   bool
	OpenFailures bool
	Shard        int
	Shards       int
	JUnitPath    string
	HistoryDSN   string
	HistoryLimit int
	Timeout      time.Duration
}

// ToConfigFlags converts CLI flags to config flags. Shards are numbered from 1
// on the command line.
func (f *Flags) ToConfigFlags() config.Flags {
	shardIndex := 0
	if f.Shard > 0 {
		shardIndex = f.Shard - 1
	}
	return config.Flags{
		ProjectPath:    f.ProjectPath,
		TestPath:       f.TestPath,
		NameFilter:     f.NameFilter,
		TestCases:      f.TestCases,
		FailFast:       f.FailFast,
		OnlyFailed:     f.OnlyFailed,
		OpenFailures:   f.OpenFailures,
		Verbose:        f.Verbose,
		ShardIndex:     shardIndex,
		ShardCount:     f.Shards,
		JUnitPath:      f.JUnitPath,
		HistoryDSN:     f.HistoryDSN,
		HistoryLimit:   f.HistoryLimit,
		Timeout:        f.Timeout,
		DefinitionPath: f.DefinitionPath,
	}
}

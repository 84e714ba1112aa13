package cli

import (
	"testing"
	"time"
)

func TestToConfigFlags(t *testing.T) {
	flags := Flags{
		ProjectPath:  "/srv/app",
		NameFilter:   "*calc*",
		Shard:        2,
		Shards:       3,
		Timeout:      time.Second,
		HistoryLimit: 5,
	}

	got := flags.ToConfigFlags()

	if got.ProjectPath != "/srv/app" || got.NameFilter != "*calc*" {
		t.Errorf("paths not copied: %+v", got)
	}
	if got.ShardIndex != 1 || got.ShardCount != 3 {
		t.Errorf("expected shard 1 of 3, got %d of %d", got.ShardIndex, got.ShardCount)
	}
	if got.Timeout != time.Second {
		t.Errorf("expected timeout 1s, got %v", got.Timeout)
	}
	if got.HistoryLimit != 5 {
		t.Errorf("expected history limit 5, got %d", got.HistoryLimit)
	}
}

func TestToConfigFlags_NoShard(t *testing.T) {
	got := (&Flags{}).ToConfigFlags()

	if got.ShardIndex != 0 {
		t.Errorf("expected shard index 0, got %d", got.ShardIndex)
	}
}

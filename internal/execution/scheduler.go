package execution

import "fmt"

// Scheduler distributes script files across buckets
type Scheduler interface {
	Schedule(files []string, buckets int) [][]string
}

// RoundRobinScheduler distributes files evenly across buckets
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule deals files out to buckets in turn
func (s *RoundRobinScheduler) Schedule(files []string, buckets int) [][]string {
	if buckets <= 0 {
		buckets = 1
	}

	distribution := make([][]string, buckets)
	for i := range distribution {
		distribution[i] = make([]string, 0)
	}

	for i, file := range files {
		distribution[i%buckets] = append(distribution[i%buckets], file)
	}

	return distribution
}

// Shard returns the files this process should run when a run is split over
// count machines. Index is zero based.
func Shard(s Scheduler, files []string, index, count int) ([]string, error) {
	if count <= 1 {
		return files, nil
	}
	if index < 0 || index >= count {
		return nil, fmt.Errorf("shard index %d out of range for %d shards", index, count)
	}
	return s.Schedule(files, count)[index], nil
}

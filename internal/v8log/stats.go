package v8log

import "go.uber.org/atomic"

// DebugStats counts the consistency misses tolerated while folding a log.
// Counters are atomic so engines running in parallel may share one instance.
type DebugStats struct {
	LookupMisses  atomic.Int64
	RemoveMisses  atomic.Int64
	AddCollisions atomic.Int64
	MoveMisses    atomic.Int64
}

// StatsSnapshot is a point-in-time copy of DebugStats.
type StatsSnapshot struct {
	AddCollisions int64 `json:"add_collisions"`
	LookupMisses  int64 `json:"lookup_misses"`
	RemoveMisses  int64 `json:"remove_misses"`
	MoveMisses    int64 `json:"move_misses"`
}

func (s *DebugStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		AddCollisions: s.AddCollisions.Load(),
		LookupMisses:  s.LookupMisses.Load(),
		RemoveMisses:  s.RemoveMisses.Load(),
		MoveMisses:    s.MoveMisses.Load(),
	}
}

// Reset zeroes every counter.
func (s *DebugStats) Reset() {
	s.LookupMisses.Store(0)
	s.RemoveMisses.Store(0)
	s.AddCollisions.Store(0)
	s.MoveMisses.Store(0)
}

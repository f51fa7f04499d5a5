// Package stats collects advisory counters about inference runs,
// such as the size of the constraint graph or of the solution.
package stats

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
)

const (
	GraphSize      = "graph_size"
	AnnotationSize = "annotation_size"
	SubTasks       = "sub_tasks"
	UnsatSubTasks  = "unsat_sub_tasks"
)

// Sink accepts named counters. Implementations must be safe for concurrent use
type Sink interface {
	AddOrIncrement(name string, n int64)
}

// Discard is a Sink that ignores everything
var Discard Sink = discard{}

type discard struct{}

func (discard) AddOrIncrement(string, int64) {}

// Statistics is an in-memory Sink
type Statistics struct {
	mu      sync.Mutex
	entries map[string]int64
}

func New() *Statistics {
	return &Statistics{entries: make(map[string]int64)}
}

func (s *Statistics) AddOrIncrement(name string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] += n
}

func (s *Statistics) Get(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[name]
}

// Snapshot returns a copy of every counter
func (s *Statistics) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.entries)
}

func (s *Statistics) LogValue() slog.Value {
	snapshot := s.Snapshot()
	attrs := make([]slog.Attr, 0, len(snapshot))
	for _, name := range slices.Sorted(maps.Keys(snapshot)) {
		attrs = append(attrs, slog.Int64(name, snapshot[name]))
	}
	return slog.GroupValue(attrs...)
}

// ABOUTME: In-memory detection statistics
// ABOUTME: Counts results per label and keeps the most recent detections for the dashboard
package server

import (
	"sync"
	"time"
)

const recentDetections = 10

// Detection summarizes one handled request
type Detection struct {
	Time           time.Time
	Transport      string
	Classification string
	Confidence     float64
	Duration       time.Duration
	RequestID      string
}

// Stats accumulates detections. Safe for concurrent use.
type Stats struct {
	mu     sync.Mutex
	total  int
	counts map[string]int
	recent []Detection
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Total  int
	Counts map[string]int
	Recent []Detection // newest first
}

// NewStats creates empty statistics
func NewStats() *Stats {
	return &Stats{counts: make(map[string]int)}
}

// Record adds a detection
func (s *Stats) Record(d Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.counts[d.Classification]++
	s.recent = append(s.recent, d)
	if len(s.recent) > recentDetections {
		s.recent = s.recent[len(s.recent)-recentDetections:]
	}
}

// Snapshot copies the current state
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}
	recent := make([]Detection, len(s.recent))
	for i, d := range s.recent {
		recent[len(s.recent)-1-i] = d
	}
	return StatsSnapshot{Total: s.total, Counts: counts, Recent: recent}
}

package metrics

import (
	"sync"
	"time"
)

// Store is a thread-safe in-memory Recorder and Reader. Recent runs are
// kept in a fixed-size ring; totals cover the whole process lifetime.
//
// Usage:
//
//	store := NewStore(DefaultStoreConfig(), time.Now())
//	store.Record(run)
//	stats := store.Stats()
type Store struct {
	mu sync.RWMutex

	ring []Run
	head int
	size int

	totalRuns    int64
	totalSuccess int64
	totalErrors  int64
	cacheHits    int64
	words        int64
	byStrategy   map[string]*strategyTotals

	// consecutive failures, reset by any success
	failStreak int

	startTime     time.Time
	version       string
	degradedAfter int
}

type strategyTotals struct {
	count         int64
	chunks        int64
	totalDuration time.Duration
}

// StoreConfig configures the Store.
type StoreConfig struct {
	// HistoryCapacity is how many recent runs Recent can return.
	HistoryCapacity int
	Version         string

	// DegradedAfter consecutive failures reports HealthDegraded.
	DegradedAfter int
}

// DefaultStoreConfig keeps 100 runs and degrades after 3 failures in a row.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		HistoryCapacity: 100,
		Version:         "0.0.0",
		DegradedAfter:   3,
	}
}

// NewStore creates a Store; startTime is used for uptime.
func NewStore(config StoreConfig, startTime time.Time) *Store {
	capacity := config.HistoryCapacity
	if capacity < 1 {
		capacity = 100
	}
	degradedAfter := config.DegradedAfter
	if degradedAfter < 1 {
		degradedAfter = 3
	}
	return &Store{
		ring:          make([]Run, capacity),
		byStrategy:    make(map[string]*strategyTotals),
		startTime:     startTime,
		version:       config.Version,
		degradedAfter: degradedAfter,
	}
}

// Record adds a finished run.
func (s *Store) Record(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring[s.head] = run
	s.head = (s.head + 1) % len(s.ring)
	if s.size < len(s.ring) {
		s.size++
	}

	s.totalRuns++
	switch run.Status {
	case RunStatusSuccess:
		s.totalSuccess++
		s.failStreak = 0
		s.words += int64(run.Words)
	case RunStatusError:
		s.totalErrors++
		s.failStreak++
	}
	if run.Cached {
		s.cacheHits++
		return
	}

	if run.Status != RunStatusSuccess || run.Strategy == "" {
		return
	}
	t, ok := s.byStrategy[run.Strategy]
	if !ok {
		t = &strategyTotals{}
		s.byStrategy[run.Strategy] = t
	}
	t.count++
	t.chunks += int64(run.Chunks)
	t.totalDuration += run.Duration
}

// Stats returns the aggregated counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalProcessed: s.totalRuns,
		TotalSuccess:   s.totalSuccess,
		TotalErrors:    s.totalErrors,
		CacheHits:      s.cacheHits,
		WordsProcessed: s.words,
		ByStrategy:     make(map[string]*StrategyStats, len(s.byStrategy)),
	}
	for name, t := range s.byStrategy {
		stats.ByStrategy[name] = &StrategyStats{
			Count:       t.count,
			AvgChunks:   float64(t.chunks) / float64(t.count),
			AvgDuration: t.totalDuration / time.Duration(t.count),
		}
	}
	return stats
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || s.size == 0 {
		return []Run{}
	}
	limit = min(limit, s.size)

	out := make([]Run, limit)
	for i := range limit {
		idx := (s.head - 1 - i + len(s.ring)) % len(s.ring)
		out[i] = s.ring[idx]
	}
	return out
}

// SystemStatus reports HealthDegraded once DegradedAfter runs in a row failed.
func (s *Store) SystemStatus() SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health := HealthRunning
	if s.failStreak >= s.degradedAfter {
		health = HealthDegraded
	}
	return SystemStatus{
		Health:    health,
		Version:   s.version,
		Uptime:    time.Since(s.startTime),
		LastCheck: time.Now(),
	}
}

var (
	_ Recorder = (*Store)(nil)
	_ Reader   = (*Store)(nil)
)

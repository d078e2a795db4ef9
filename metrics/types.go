// Package metrics keeps in-memory statistics about summarization runs for
// the page's status panel.
package metrics

import "time"

// Run is one finished summarization request.
type Run struct {
	// Source is "text" or "pdf".
	Source string `json:"source"`

	// Strategy is "stuff" or "map_reduce"; empty when the run failed
	// before a strategy was chosen.
	Strategy string `json:"strategy,omitempty"`

	// Status is RunStatusSuccess or RunStatusError.
	Status string `json:"status"`

	Cached bool `json:"cached"`
	Words  int  `json:"words"`
	Chunks int  `json:"chunks"`

	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`

	// ErrorMsg contains error details if Status is "error"
	ErrorMsg string `json:"error_msg,omitempty"`
}

// SystemStatus is the overall health shown next to the stats.
type SystemStatus struct {
	// Health is "running", or "degraded" after consecutive failures.
	Health    string        `json:"health"`
	Version   string        `json:"version"`
	Uptime    time.Duration `json:"uptime"`
	LastCheck time.Time     `json:"last_check"`
}

// Stats aggregates every recorded run.
type Stats struct {
	TotalProcessed int64 `json:"total_processed"`
	TotalSuccess   int64 `json:"total_success"`
	TotalErrors    int64 `json:"total_errors"`
	CacheHits      int64 `json:"cache_hits"`
	WordsProcessed int64 `json:"words_processed"`

	// ByStrategy holds successful, uncached runs per strategy.
	ByStrategy map[string]*StrategyStats `json:"by_strategy"`
}

// StrategyStats describes the runs that used one strategy.
type StrategyStats struct {
	Count       int64         `json:"count"`
	AvgChunks   float64       `json:"avg_chunks"`
	AvgDuration time.Duration `json:"avg_duration"`
}

// Run statuses
const (
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// Health values
const (
	HealthRunning  = "running"
	HealthDegraded = "degraded"
)

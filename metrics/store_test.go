package metrics

import (
	"sync"
	"testing"
	"time"
)

func success(strategy string, chunks int, d time.Duration) Run {
	return Run{Source: "text", Strategy: strategy, Status: RunStatusSuccess, Words: 100, Chunks: chunks, Duration: d}
}

func failure(msg string) Run {
	return Run{Source: "text", Status: RunStatusError, ErrorMsg: msg}
}

func TestNewStore(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		store := NewStore(StoreConfig{}, time.Now())
		if len(store.ring) != 100 {
			t.Errorf("capacity = %d, want 100", len(store.ring))
		}
		if store.degradedAfter != 3 {
			t.Errorf("degradedAfter = %d, want 3", store.degradedAfter)
		}
	})

	t.Run("custom", func(t *testing.T) {
		store := NewStore(StoreConfig{HistoryCapacity: 5, Version: "1.2.3", DegradedAfter: 1}, time.Now())
		if len(store.ring) != 5 || store.version != "1.2.3" || store.degradedAfter != 1 {
			t.Errorf("store = %+v", store)
		}
	})
}

func TestStore_Stats(t *testing.T) {
	store := NewStore(DefaultStoreConfig(), time.Now())

	store.Record(success("stuff", 1, 1*time.Second))
	store.Record(success("stuff", 1, 3*time.Second))
	store.Record(success("map_reduce", 4, 10*time.Second))
	store.Record(success("map_reduce", 6, 20*time.Second))
	store.Record(Run{Strategy: "stuff", Status: RunStatusSuccess, Cached: true, Words: 50, Chunks: 1})
	store.Record(failure("boom"))

	stats := store.Stats()
	if stats.TotalProcessed != 6 || stats.TotalSuccess != 5 || stats.TotalErrors != 1 {
		t.Errorf("totals = %d/%d/%d", stats.TotalProcessed, stats.TotalSuccess, stats.TotalErrors)
	}
	if stats.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", stats.CacheHits)
	}
	if stats.WordsProcessed != 450 {
		t.Errorf("WordsProcessed = %d, want 450", stats.WordsProcessed)
	}

	tests := []struct {
		strategy    string
		count       int64
		avgChunks   float64
		avgDuration time.Duration
	}{
		{"stuff", 2, 1, 2 * time.Second},
		{"map_reduce", 2, 5, 15 * time.Second},
	}
	for _, tt := range tests {
		got, ok := stats.ByStrategy[tt.strategy]
		if !ok {
			t.Fatalf("no stats for %s", tt.strategy)
		}
		if got.Count != tt.count || got.AvgChunks != tt.avgChunks || got.AvgDuration != tt.avgDuration {
			t.Errorf("%s = %+v", tt.strategy, got)
		}
	}
}

func TestStore_Recent(t *testing.T) {
	store := NewStore(StoreConfig{HistoryCapacity: 3}, time.Now())

	if got := store.Recent(10); len(got) != 0 || got == nil {
		t.Errorf("empty store Recent = %v", got)
	}

	for i := 1; i <= 5; i++ {
		store.Record(Run{Status: RunStatusSuccess, Words: i})
	}

	tests := []struct {
		limit int
		want  []int
	}{
		{1, []int{5}},
		{3, []int{5, 4, 3}},
		{10, []int{5, 4, 3}},
		{0, []int{}},
	}
	for _, tt := range tests {
		got := store.Recent(tt.limit)
		if len(got) != len(tt.want) {
			t.Fatalf("Recent(%d) len = %d, want %d", tt.limit, len(got), len(tt.want))
		}
		for i, run := range got {
			if run.Words != tt.want[i] {
				t.Errorf("Recent(%d)[%d].Words = %d, want %d", tt.limit, i, run.Words, tt.want[i])
			}
		}
	}
}

func TestStore_SystemStatus(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	store := NewStore(StoreConfig{Version: "v1", DegradedAfter: 2}, start)

	status := store.SystemStatus()
	if status.Health != HealthRunning || status.Version != "v1" {
		t.Errorf("status = %+v", status)
	}
	if status.Uptime < time.Minute {
		t.Errorf("Uptime = %v", status.Uptime)
	}

	store.Record(failure("a"))
	if store.SystemStatus().Health != HealthRunning {
		t.Error("one failure should not degrade")
	}
	store.Record(failure("b"))
	if store.SystemStatus().Health != HealthDegraded {
		t.Error("two failures in a row should degrade")
	}
	store.Record(success("stuff", 1, time.Second))
	if store.SystemStatus().Health != HealthRunning {
		t.Error("a success should recover")
	}
}

func TestStore_Concurrent(t *testing.T) {
	store := NewStore(StoreConfig{HistoryCapacity: 10}, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Record(success("stuff", 1, time.Millisecond))
			_ = store.Stats()
			_ = store.Recent(5)
		}()
	}
	wg.Wait()

	if got := store.Stats().TotalProcessed; got != 50 {
		t.Errorf("TotalProcessed = %d, want 50", got)
	}
	if got := len(store.Recent(100)); got != 10 {
		t.Errorf("Recent len = %d, want 10", got)
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.Record(failure("ignored"))
}

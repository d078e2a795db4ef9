package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func sampleRecord(summary string) SummaryRecord {
	return SummaryRecord{
		Source:       "text",
		Strategy:     "stuff",
		Provider:     "groq",
		Model:        "llama3-8b-8192",
		Words:        120,
		Chunks:       1,
		InputPreview: "The quick brown fox",
		Summary:      summary,
		DurationMS:   840,
	}
}

func TestInsertAndGetSummary(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	id, err := repo.InsertSummary(ctx, sampleRecord("A fox jumps."))
	if err != nil {
		t.Fatalf("InsertSummary() error = %v", err)
	}
	if len(id) != 36 {
		t.Errorf("id = %q, want a uuid", id)
	}

	got, err := repo.GetSummary(ctx, id)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if got.Summary != "A fox jumps." || got.Model != "llama3-8b-8192" || got.Words != 120 {
		t.Errorf("GetSummary() = %+v", got)
	}
	if time.Since(got.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt = %v, want recent", got.CreatedAt)
	}

	if _, err := repo.GetSummary(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSummary(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestListSummaries(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, s := range []string{"first", "second", "third"} {
		rec := sampleRecord(s)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := repo.InsertSummary(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all newest first", 10, []string{"third", "second", "first"}},
		{"limited", 2, []string{"third", "second"}},
		{"zero uses default", 0, []string{"third", "second", "first"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListSummaries(ctx, tt.limit)
			if err != nil {
				t.Fatalf("ListSummaries() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Summary != tt.want[i] {
					t.Errorf("[%d] = %q, want %q", i, got[i].Summary, tt.want[i])
				}
			}
		})
	}
}

func TestListSummaries_Empty(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	got, err := repo.ListSummaries(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListSummaries() = %v, want empty non-nil slice", got)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	old := sampleRecord("old")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	if _, err := repo.InsertSummary(ctx, old); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertSummary(ctx, sampleRecord("new")); err != nil {
		t.Fatal(err)
	}

	n, err := repo.DeleteOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if count, _ := repo.Count(ctx); count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}

	if _, err := repo.DeleteOlderThan(ctx, -time.Second); err == nil {
		t.Error("expected error for negative age")
	}
	if err := repo.db.Vacuum(ctx); err != nil {
		t.Errorf("Vacuum() error = %v", err)
	}
}

func TestRunRetention(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())

	old := sampleRecord("old")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	if _, err := repo.InsertSummary(context.Background(), old); err != nil {
		t.Fatal(err)
	}

	reported := make(chan int64, 4)
	done := make(chan struct{})
	go func() {
		repo.RunRetention(ctx, time.Hour, time.Hour, func(n int64, err error) {
			if err == nil {
				reported <- n
			}
		})
		close(done)
	}()

	select {
	case n := <-reported:
		if n != 1 {
			t.Errorf("first pass deleted %d, want 1", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retention pass did not run")
	}
	cancel()
	<-done
}

func TestRecord_Async(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	repo.StartAsync(DefaultAsyncWriterConfig())
	ctx := context.Background()

	var ids []string
	for _, s := range []string{"a", "b", "c"} {
		id, err := repo.Record(ctx, sampleRecord(s))
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		ids = append(ids, id)
	}

	repo.Close()

	for _, id := range ids {
		if _, err := repo.GetSummary(ctx, id); err != nil {
			t.Errorf("GetSummary(%s) after drain error = %v", id, err)
		}
	}
}

func TestRecord_Sync(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	id, err := repo.Record(context.Background(), sampleRecord("sync"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetSummary(context.Background(), id); err != nil {
		t.Errorf("synchronous Record not visible: %v", err)
	}
}

func TestConcurrentInserts(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.InsertSummary(ctx, sampleRecord("x")); err != nil {
				t.Errorf("InsertSummary() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if n, _ := repo.Count(ctx); n != 20 {
		t.Errorf("Count() = %d, want 20", n)
	}
}

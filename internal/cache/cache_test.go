package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

func TestLRUCache(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3) // evicts b

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", "x")
	c.Set("b", "y")
	now = now.Add(2 * time.Minute)
	c.Set("c", "z")

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired removed %d, want 1", n)
	}
	if c.Size() != 1 {
		t.Errorf("size = %d, want 1", c.Size())
	}
}

type countingFetcher struct {
	calls   atomic.Int32
	entries map[string][]models.Entry
}

func (f *countingFetcher) fetch(ctx context.Context, householdID string) ([]models.Entry, error) {
	f.calls.Add(1)
	return f.entries[householdID], nil
}

func TestEntryCacheReadThrough(t *testing.T) {
	f := &countingFetcher{entries: map[string][]models.Entry{"h1": {{ID: "e1"}}}}
	c := NewEntryCache(f.fetch, 8, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Get(ctx, "h1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != "e1" {
			t.Fatalf("Get = %+v", got)
		}
	}
	if f.calls.Load() != 1 {
		t.Errorf("fetched %d times, want 1", f.calls.Load())
	}

	f.entries["h1"] = append(f.entries["h1"], models.Entry{ID: "e2"})
	c.Invalidate("h1")
	got, _ := c.Get(ctx, "h1")
	if len(got) != 2 || f.calls.Load() != 2 {
		t.Errorf("after invalidate: %d entries, %d fetches", len(got), f.calls.Load())
	}
	if c.Generation("h1") != 1 {
		t.Errorf("generation = %d, want 1", c.Generation("h1"))
	}
}

func TestEntryCacheReturnsCopies(t *testing.T) {
	f := &countingFetcher{entries: map[string][]models.Entry{"h1": {{ID: "e1"}}}}
	c := NewEntryCache(f.fetch, 8, time.Minute, nil)
	ctx := context.Background()

	got, _ := c.Get(ctx, "h1")
	got[0].ID = "mutated"
	again, _ := c.Get(ctx, "h1")
	if again[0].ID != "e1" {
		t.Error("callers must not be able to mutate the cached snapshot")
	}
}

func TestEntryCacheDiscardsStaleFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	fetch := func(ctx context.Context, householdID string) ([]models.Entry, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []models.Entry{{ID: "old"}}, nil
		}
		return []models.Entry{{ID: "new"}}, nil
	}
	c := NewEntryCache(fetch, 8, time.Minute, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var slow []models.Entry
	wg.Add(1)
	go func() {
		defer wg.Done()
		slow, _ = c.Get(ctx, "h1")
	}()

	<-started
	c.Invalidate("h1")
	close(release)
	wg.Wait()

	if len(slow) != 1 || slow[0].ID != "old" {
		t.Errorf("slow caller got %+v", slow)
	}

	fresh, _ := c.Get(ctx, "h1")
	if len(fresh) != 1 || fresh[0].ID != "new" {
		t.Errorf("stale snapshot was stored: %+v", fresh)
	}
}

func TestEntryCacheFetchOutlivesCancelledCaller(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	fetch := func(ctx context.Context, householdID string) ([]models.Entry, error) {
		calls.Add(1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []models.Entry{{ID: "e1"}}, nil
	}
	c := NewEntryCache(fetch, 8, time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var got []models.Entry
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err = c.Get(ctx, "h1")
	}()

	<-started
	cancel()
	close(release)
	<-done

	if err != nil || len(got) != 1 {
		t.Fatalf("shared fetch failed after cancel: %v, %+v", err, got)
	}
	again, err := c.Get(context.Background(), "h1")
	if err != nil || len(again) != 1 || calls.Load() != 1 {
		t.Errorf("snapshot not cached: %v, %d fetches", err, calls.Load())
	}
}

func TestEntryCacheDoesNotCacheErrors(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, householdID string) ([]models.Entry, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("store unavailable")
		}
		return []models.Entry{}, nil
	}
	c := NewEntryCache(fetch, 8, time.Minute, nil)

	if _, err := c.Get(context.Background(), "h1"); err == nil {
		t.Fatal("expected the first fetch to fail")
	}
	got, err := c.Get(context.Background(), "h1")
	if err != nil || got == nil {
		t.Errorf("retry = %v, %v", got, err)
	}
}

func TestRunJanitorStops(t *testing.T) {
	c := NewEntryCache(func(ctx context.Context, id string) ([]models.Entry, error) { return nil, nil }, 8, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	if c == nil {
		t.Fatal("NewMemoryCache() returned nil")
	}
	if c.Len() != 0 {
		t.Errorf("new cache should be empty, got %d entries", c.Len())
	}
}

func TestMemoryCache_Put_Get(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{Strategy: "seasonal", Periods: 2, History: []float64{1, 2, 3}}
	entry := Entry{Model: "seasonal", Predictions: []float64{4, 5}, CreatedAt: time.Now()}

	if err := c.Put(ctx, key, entry); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if got.Model != entry.Model {
		t.Errorf("Model = %q, want %q", got.Model, entry.Model)
	}
	if len(got.Predictions) != 2 || got.Predictions[0] != 4 || got.Predictions[1] != 5 {
		t.Errorf("Predictions = %v, want [4 5]", got.Predictions)
	}
}

func TestMemoryCache_Get_Miss(t *testing.T) {
	c := NewMemoryCache()

	_, found, err := c.Get(context.Background(), Key{Strategy: "seasonal", Periods: 1, History: []float64{1}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true for empty cache")
	}
}

func TestMemoryCache_EqualKeysShareEntry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	history := []float64{1, 2, 3}
	if err := c.Put(ctx, Key{Strategy: "seasonal", Periods: 1, History: history}, Entry{Predictions: []float64{9}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// A distinct slice with the same values is the same key.
	_, found, err := c.Get(ctx, Key{Strategy: "seasonal", Periods: 1, History: []float64{1, 2, 3}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Error("expected hit for equal key")
	}
}

func TestMemoryCache_EntriesAreCopied(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{Strategy: "seasonal", Periods: 2, History: []float64{1, 2, 3}}

	preds := []float64{4, 5}
	if err := c.Put(ctx, key, Entry{Predictions: preds}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	preds[0] = 100

	got, _, _ := c.Get(ctx, key)
	if got.Predictions[0] != 4 {
		t.Errorf("stored entry changed through caller slice: %v", got.Predictions)
	}

	got.Predictions[1] = 200
	again, _, _ := c.Get(ctx, key)
	if again.Predictions[1] != 5 {
		t.Errorf("stored entry changed through returned slice: %v", again.Predictions)
	}
}

func TestMemoryCache_ContextCanceled(t *testing.T) {
	c := NewMemoryCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	key := Key{Strategy: "seasonal", Periods: 1, History: []float64{1}}
	if err := c.Put(ctx, key, Entry{}); err != context.Canceled {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
	if _, _, err := c.Get(ctx, key); err != context.Canceled {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestMemoryCache_NoEviction(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	for i := range 1000 {
		key := Key{Strategy: "seasonal", Periods: 1, History: []float64{float64(i)}}
		if err := c.Put(ctx, key, Entry{Predictions: []float64{float64(i)}}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	if c.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", c.Len())
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range perGoroutine {
				key := Key{Strategy: fmt.Sprintf("s%d", g), Periods: i, History: []float64{float64(i)}}
				if err := c.Put(ctx, key, Entry{Predictions: []float64{float64(i)}}); err != nil {
					t.Errorf("Put() error = %v", err)
					return
				}
				if _, found, err := c.Get(ctx, key); err != nil || !found {
					t.Errorf("Get() found = %v, error = %v", found, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() != goroutines*perGoroutine {
		t.Errorf("Len() = %d, want %d", c.Len(), goroutines*perGoroutine)
	}
}

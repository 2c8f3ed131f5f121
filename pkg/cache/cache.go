// Package cache memoizes prediction results.
//
// A Key is the exact identity of a prediction: the strategy that produced it,
// the horizon, and the ordered history values. Entries are never invalidated
// by the cache itself; once a key is stored, later lookups return the same
// entry for the lifetime of the backend.
//
// Two backends are provided:
//   - MemoryCache: process-local, unbounded, lost on restart
//   - RedisCache: shared between instances, optional TTL
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Key identifies a memoized prediction.
type Key struct {
	Strategy string
	Periods  int
	History  []float64
}

// String renders the key deterministically.
// Format: predict:<strategy>:<periods>:<v1>,<v2>,...
//
// Values use the shortest representation that round-trips exactly, so two
// keys are equal only if every value compares equal. -0 renders as 0.
func (k Key) String() string {
	var b strings.Builder
	b.Grow(24 + len(k.Strategy) + 8*len(k.History))

	b.WriteString("predict:")
	b.WriteString(k.Strategy)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(k.Periods))
	b.WriteByte(':')
	for i, v := range k.History {
		if i > 0 {
			b.WriteByte(',')
		}
		if v == 0 {
			v = 0
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}

	return b.String()
}

// Entry is a memoized prediction result.
type Entry struct {
	Model       string    `json:"model"`
	Predictions []float64 `json:"predictions"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e Entry) clone() Entry {
	preds := make([]float64, len(e.Predictions))
	copy(preds, e.Predictions)
	e.Predictions = preds
	return e
}

// Cache stores prediction results by key.
type Cache interface {
	// Get returns the entry for key and whether it was found.
	// A miss is not an error.
	Get(ctx context.Context, key Key) (Entry, bool, error)

	// Put stores entry under key, replacing any previous entry.
	Put(ctx context.Context, key Key, entry Entry) error
}

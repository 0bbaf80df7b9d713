// Package handoff passes a freshly computed analysis from the submission
// request to the founder's next dashboard load.
package handoff

import (
	"sync"
	"time"
)

// Box holds at most one value per key. Put replaces, Take removes.
// Expired entries are dropped on access.
type Box[T any] struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	m   map[string]entry[T]
}

type entry[T any] struct {
	v   T
	exp time.Time
}

// New returns a Box whose entries live for ttl; ttl <= 0 means forever.
func New[T any](ttl time.Duration) *Box[T] {
	return &Box[T]{ttl: ttl, now: time.Now, m: map[string]entry[T]{}}
}

func (b *Box[T]) Put(key string, v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := entry[T]{v: v}
	if b.ttl > 0 {
		e.exp = b.now().Add(b.ttl)
	}
	b.m[key] = e
	b.sweep()
}

// Take returns and removes the value for key.
func (b *Box[T]) Take(key string) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.m[key]
	if !ok {
		var zero T
		return zero, false
	}
	delete(b.m, key)
	if b.expired(e) {
		var zero T
		return zero, false
	}
	return e.v, true
}

func (b *Box[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweep()
	return len(b.m)
}

func (b *Box[T]) expired(e entry[T]) bool {
	return !e.exp.IsZero() && b.now().After(e.exp)
}

// sweep drops expired entries. Caller holds mu.
func (b *Box[T]) sweep() {
	for k, e := range b.m {
		if b.expired(e) {
			delete(b.m, k)
		}
	}
}

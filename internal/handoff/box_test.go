package handoff

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPutTakeOnce(t *testing.T) {
	b := New[string](time.Minute)
	b.Put("f1", "a")
	b.Put("f1", "b")

	v, ok := b.Take("f1")
	assert.True(t, ok)
	assert.Equal(t, "b", v, "put replaces")

	_, ok = b.Take("f1")
	assert.False(t, ok, "take consumes")
}

func TestKeysAreIndependent(t *testing.T) {
	b := New[int](0)
	b.Put("f1", 1)
	b.Put("f2", 2)
	v, _ := b.Take("f2")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, b.Len())
}

func TestExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	b := New[string](time.Minute)
	b.now = func() time.Time { return now }

	b.Put("f1", "a")
	now = now.Add(2 * time.Minute)
	_, ok := b.Take("f1")
	assert.False(t, ok)

	b.Put("f2", "b")
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, b.Len())
}

func TestConcurrentUse(t *testing.T) {
	b := New[int](time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); b.Put("k", i) }()
		go func() { defer wg.Done(); b.Take("k") }()
	}
	wg.Wait()
	assert.LessOrEqual(t, b.Len(), 1)
}

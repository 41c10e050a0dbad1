package cache

import (
	"testing"
	"time"
)

type notifyingCleaner struct {
	cleaned chan struct{}
}

func (c *notifyingCleaner) CleanExpired() int {
	select {
	case c.cleaned <- struct{}{}:
	default:
	}
	return 1
}

func TestJanitorSweepsRegisteredCaches(t *testing.T) {
	cleaner := &notifyingCleaner{cleaned: make(chan struct{}, 1)}

	j := NewJanitor()
	j.Register(cleaner)
	j.Start(5 * time.Millisecond)
	defer j.Stop()

	select {
	case <-cleaner.cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor never swept the registered cache")
	}
}

func TestJanitorSweepsExpiredLRUEntries(t *testing.T) {
	lru := NewLRU[int](10, time.Millisecond)
	lru.Set("a", 1)
	lru.Set("b", 2)
	time.Sleep(5 * time.Millisecond)

	j := NewJanitor()
	j.Register(lru)
	j.Start(5 * time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for lru.Size() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expired entries not swept, size=%d", lru.Size())
		}
		time.Sleep(5 * time.Millisecond)
	}
	j.Stop()
}

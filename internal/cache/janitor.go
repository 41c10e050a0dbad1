package cache

import (
	"log/slog"
	"time"
)

// Cleaner is implemented by caches that can drop expired entries eagerly.
type Cleaner interface {
	CleanExpired() int
}

// Janitor sweeps expired entries out of registered caches on an interval.
// Entries also expire lazily on read; the sweep just keeps long-idle keys
// from sitting in memory until the next lookup.
type Janitor struct {
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewJanitor() *Janitor {
	return &Janitor{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the sweep. Not safe to call after Start.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

// Start launches the sweep loop in a goroutine.
func (j *Janitor) Start(interval time.Duration) {
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				slog.Debug("Cache sweep removed expired entries", "count", removed)
			}
		case <-j.stop:
			return
		}
	}
}

// Stop halts the sweep loop and waits for it to finish.
func (j *Janitor) Stop() {
	close(j.stop)
	<-j.done
}

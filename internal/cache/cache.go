package cache

import (
	"log/slog"
	"time"
)

// Cache is the read/write surface the API adapters depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically evicts expired entries from registered caches.
type Janitor struct {
	caches  []Cleaner
	stop    chan struct{}
	done    chan struct{}
	started bool
}

func NewJanitor(caches ...Cleaner) *Janitor {
	return &Janitor{
		caches: caches,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start runs the cleanup loop every interval until Stop is called.
func (j *Janitor) Start(interval time.Duration) {
	j.started = true
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", n)
			}
		case <-j.stop:
			return
		}
	}
}

// Sweep cleans every registered cache once and returns the number of evictions.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup loop and waits for it to exit.
func (j *Janitor) Stop() {
	if !j.started {
		return
	}
	close(j.stop)
	<-j.done
	j.started = false
}

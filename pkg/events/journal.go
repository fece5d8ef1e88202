package events

import (
	"sync"
	"time"
)

// Filter selects journal entries. Zero fields match everything.
type Filter struct {
	Entity Kind
	Op     Op
	Since  *time.Time
	Until  *time.Time
}

func (f *Filter) matches(ev Event) bool {
	if f == nil {
		return true
	}
	if f.Entity != "" && ev.Entity != f.Entity {
		return false
	}
	if f.Op != "" && ev.Op != f.Op {
		return false
	}
	if f.Since != nil && ev.At.Before(*f.Since) {
		return false
	}
	if f.Until != nil && ev.At.After(*f.Until) {
		return false
	}
	return true
}

// Journal is a Listener that keeps the most recent events in a circular buffer
type Journal struct {
	events []Event
	size   int
	index  int
	count  int
	total  int64
	mu     sync.RWMutex
}

// NewJournal creates a journal holding at most size events
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = 1
	}
	return &Journal{
		events: make([]Event, size),
		size:   size,
	}
}

func (j *Journal) OnEvent(ev Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events[j.index] = ev
	j.index = (j.index + 1) % j.size
	if j.count < j.size {
		j.count++
	}
	j.total++
}

// Events returns the retained events matching filter, oldest first
func (j *Journal) Events(filter *Filter) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]Event, 0, j.count)
	for i := 0; i < j.count; i++ {
		ev := j.events[(j.index-j.count+i+j.size)%j.size]
		if filter.matches(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Recent returns up to n retained events, newest first
func (j *Journal) Recent(n int) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if n > j.count {
		n = j.count
	}
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, j.events[(j.index-1-i+j.size)%j.size])
	}
	return out
}

// Total is the number of events seen, including those no longer retained
func (j *Journal) Total() int64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.total
}

// Package tabs remembers the browser tabs content scripts have reported
// from, so actions that name a tab by ID can recover its URL.
package tabs

import (
	"sync"
	"time"
)

type Tab struct {
	ID       int
	URL      string
	Title    string
	LastSeen time.Time
}

type Registry struct {
	mu   sync.RWMutex
	tabs map[int]Tab
	now  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{tabs: make(map[int]Tab), now: time.Now}
}

// Observe records a tab. A zero ID is ignored; an empty URL or title keeps
// the previously known one.
func (r *Registry) Observe(t Tab) {
	if t.ID == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.tabs[t.ID]
	if t.URL == "" {
		t.URL = prev.URL
	}
	if t.Title == "" {
		t.Title = prev.Title
	}
	t.LastSeen = r.now()
	r.tabs[t.ID] = t
}

func (r *Registry) Lookup(id int) (Tab, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tabs[id]
	return t, ok
}

func (r *Registry) Forget(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, id)
}

// Prune drops tabs not seen since before cutoff and returns how many.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, t := range r.tabs {
		if t.LastSeen.Before(cutoff) {
			delete(r.tabs, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}

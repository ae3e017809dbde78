package scraper

import "sync"

// VisitedSet records the product paths discovered during one crawl run.
// TryAdd is the only way in, so a path is claimed by exactly one caller.
type VisitedSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{paths: make(map[string]struct{})}
}

// TryAdd inserts path and reports whether it was new.
func (v *VisitedSet) TryAdd(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.paths[path]; ok {
		return false
	}
	v.paths[path] = struct{}{}
	return true
}

// Contains reports whether path has been discovered.
func (v *VisitedSet) Contains(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.paths[path]
	return ok
}

// Len returns the number of discovered paths.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.paths)
}

package crawler

import "sync"

// visitedSet tracks URLs claimed during one run and enforces the
// page-count ceiling. Admit is a read-only check: a branch re-checks it
// once it holds a fetch permit and Marks before releasing, so the stored
// page count can overshoot maxPages by at most the permit count minus
// one, and not at all with a single permit.
type visitedSet struct {
	mu       sync.Mutex
	urls     map[string]struct{}
	maxPages int
}

func newVisitedSet(maxPages int) *visitedSet {
	return &visitedSet{
		urls:     make(map[string]struct{}),
		maxPages: maxPages,
	}
}

// Admit reports whether a branch may proceed with url: the URL is unseen
// and the ceiling has not been reached. It does not claim the URL.
func (v *visitedSet) Admit(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.urls) >= v.maxPages {
		return false
	}
	_, seen := v.urls[url]
	return !seen
}

// Mark records url as visited for the rest of the run.
func (v *visitedSet) Mark(url string) {
	v.mu.Lock()
	v.urls[url] = struct{}{}
	v.mu.Unlock()
}

// Len returns the number of visited URLs.
func (v *visitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}

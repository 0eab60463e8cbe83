package filter

import "sync"

// EmittedKey identifies a (sample, variant) pair that has been written.
type EmittedKey struct {
	Sample string
	Chrom  string
	Pos    int64
	Ref    string
	Alt    string
}

// Tracker records emitted keys so each (sample, variant) pair is written once.
// It is safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	seen map[EmittedKey]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[EmittedKey]struct{})}
}

// Seen reports whether key has been recorded.
func (t *Tracker) Seen(key EmittedKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[key]
	return ok
}

// Mark records key and reports whether it was new.
func (t *Tracker) Mark(key EmittedKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Len returns the number of recorded keys.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

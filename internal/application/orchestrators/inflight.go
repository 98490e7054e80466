package orchestrators

import "sync"

type inFlightKey struct {
	session string
	project int64
}

// InFlight tracks application submissions that have not returned yet.
// At most one submission per (session, project) pair is active.
type InFlight struct {
	mu     sync.Mutex
	active map[inFlightKey]struct{}
}

// NewInFlight creates an empty InFlight set.
func NewInFlight() *InFlight {
	return &InFlight{active: make(map[inFlightKey]struct{})}
}

// TryBegin marks the pair active. It returns false if it already was.
func (f *InFlight) TryBegin(sessionKey string, projectID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := inFlightKey{sessionKey, projectID}
	if _, ok := f.active[k]; ok {
		return false
	}
	f.active[k] = struct{}{}
	return true
}

// End clears the pair.
func (f *InFlight) End(sessionKey string, projectID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, inFlightKey{sessionKey, projectID})
}

// Active reports whether a submission for the pair is pending.
func (f *InFlight) Active(sessionKey string, projectID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.active[inFlightKey{sessionKey, projectID}]
	return ok
}

package auth

import (
	"sync"
	"time"
)

const revocationPruneInterval = time.Minute

// revocations remembers logged out token IDs until the token would have
// expired on its own. Entries leave only by expiry, never by pressure.
type revocations struct {
	mu        sync.Mutex
	byID      map[string]time.Time
	nextPrune time.Time
}

func newRevocations() *revocations {
	return &revocations{byID: make(map[string]time.Time)}
}

func (r *revocations) revoke(id string, expiresAt, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !now.Before(r.nextPrune) {
		r.pruneLocked(now)
	}
	if !expiresAt.After(now) {
		return
	}
	r.byID[id] = expiresAt
}

func (r *revocations) isRevoked(id string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt, ok := r.byID[id]
	if !ok {
		return false
	}
	if !expiresAt.After(now) {
		delete(r.byID, id)
		return false
	}
	return true
}

func (r *revocations) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *revocations) pruneLocked(now time.Time) {
	for id, expiresAt := range r.byID {
		if !expiresAt.After(now) {
			delete(r.byID, id)
		}
	}
	r.nextPrune = now.Add(revocationPruneInterval)
}

package scheduler

import (
	"sync"

	"github.com/talgya/hexfront/internal/game"
)

// Leases grants at most one in-flight computation per game. Independent
// games never wait on each other.
type Leases struct {
	mu   sync.Mutex
	held map[game.GameID]struct{}
}

// NewLeases returns an empty lease table.
func NewLeases() *Leases {
	return &Leases{held: make(map[game.GameID]struct{})}
}

// TryAcquire takes the lease on a game. It returns false if the lease is
// already held.
func (l *Leases) TryAcquire(id game.GameID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[id]; ok {
		return false
	}
	l.held[id] = struct{}{}
	return true
}

// Release returns the lease on a game.
func (l *Leases) Release(id game.GameID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}

// Held reports whether a game's lease is currently taken.
func (l *Leases) Held(id game.GameID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[id]
	return ok
}

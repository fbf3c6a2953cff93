package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable IDs for tests: "<prefix>-0001",
// "<prefix>-0002", ...
//
// This enables deterministic history and golden snapshot comparison where
// production code would use UUIDv7.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "xp".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "xp"
	}
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next ID.
func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

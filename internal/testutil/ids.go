// Package testutil provides deterministic helpers shared by tests and
// the conformance harness: sequential request IDs and a rule-set
// document builder for fixtures.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator mints request IDs in a fixed, readable sequence
// ("step-001", "step-002", …) so golden transcripts stay stable across
// runs.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "step".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "step"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next ID in sequence.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n)
}

// Count reports how many IDs have been handed out.
func (g *SequenceIDGenerator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

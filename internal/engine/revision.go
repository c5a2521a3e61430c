package engine

import "sync/atomic"

// revisionCounter issues snapshot revisions. Revisions increase across the
// whole engine lifetime, including rule-set reloads, so a consumer can
// always discard the staler of two snapshots by comparing revisions.
//
// Atomic so read-side callers on other goroutines (the service loop owns
// writes) can observe the current revision without a data race.
type revisionCounter struct {
	n atomic.Int64
}

func (c *revisionCounter) next() int64    { return c.n.Add(1) }
func (c *revisionCounter) current() int64 { return c.n.Load() }

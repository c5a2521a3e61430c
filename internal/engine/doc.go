// Package engine is the state orchestrator. It owns all mutable tracker
// state (inventory, checked locations, settings, the reachability cache)
// and is the only component that invalidates caches or runs recomputes.
//
// All public operations are synchronous and non-reentrant; the engine is
// designed for a single logical thread. The service layer provides the
// concurrency boundary, feeding the engine from one goroutine.
package engine

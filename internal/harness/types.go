package harness

import (
	"github.com/quillback/waystone/internal/query"
	"github.com/quillback/waystone/internal/snapshot"
)

// TraceEvent records one executed step and its outcome.
type TraceEvent struct {
	Step    int    `json:"step"`
	Command string `json:"command"`
	Status  string `json:"status"`
	// Code is the rejection reason or error code, "" on success.
	Code string `json:"code,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Trace lists every executed step in order, setup included.
	Trace []TraceEvent

	// Snapshot is the final engine state.
	Snapshot *snapshot.Snapshot

	// Listing is the final unfiltered location listing, used by
	// location assertions.
	Listing []query.Location

	// Errors collects expectation and assertion failures. Empty means
	// the scenario passed.
	Errors []string
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{}
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}

// AddError records a failure.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Passed reports whether the scenario ran without failures.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

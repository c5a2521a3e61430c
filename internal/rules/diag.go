package rules

// DiagKind classifies a fail-closed event observed during evaluation.
type DiagKind string

const (
	DiagMalformedNode  DiagKind = "malformed_node"
	DiagUnknownHelper  DiagKind = "unknown_helper"
	DiagNonContainerIn DiagKind = "non_container_in"
	DiagDepthExceeded  DiagKind = "depth_exceeded"
	DiagHelperReentry  DiagKind = "helper_reentry"
	DiagUnresolvedName DiagKind = "unresolved_name"
	DiagDivisionByZero DiagKind = "division_by_zero"
	DiagTypeMismatch   DiagKind = "type_mismatch"
)

// Diagnostics counts fail-closed events. The counters answer "did this rule
// set evaluate cleanly" without turning conservative behavior into errors.
//
// The struct is owned by a single evaluation thread; it is not safe for
// concurrent use.
type Diagnostics struct {
	MalformedNodes  int64
	UnknownHelpers  int64
	NonContainerIn  int64
	DepthExceeded   int64
	HelperReentry   int64
	UnresolvedNames int64
	DivisionsByZero int64
	TypeMismatches  int64
}

func (d *Diagnostics) record(kind DiagKind) {
	switch kind {
	case DiagMalformedNode:
		d.MalformedNodes++
	case DiagUnknownHelper:
		d.UnknownHelpers++
	case DiagNonContainerIn:
		d.NonContainerIn++
	case DiagDepthExceeded:
		d.DepthExceeded++
	case DiagHelperReentry:
		d.HelperReentry++
	case DiagUnresolvedName:
		d.UnresolvedNames++
	case DiagDivisionByZero:
		d.DivisionsByZero++
	case DiagTypeMismatch:
		d.TypeMismatches++
	}
}

// Total sums all counters.
func (d Diagnostics) Total() int64 {
	return d.MalformedNodes +
		d.UnknownHelpers +
		d.NonContainerIn +
		d.DepthExceeded +
		d.HelperReentry +
		d.UnresolvedNames +
		d.DivisionsByZero +
		d.TypeMismatches
}

// Clean reports whether no fail-closed event has been observed.
func (d Diagnostics) Clean() bool { return d.Total() == 0 }

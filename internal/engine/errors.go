package engine

import "github.com/samber/oops"

// Rejection reasons for command validation. These are the typed, stable
// identifiers the protocol surfaces; callers match on them, never on
// message text.
const (
	// ReasonAlreadyChecked rejects a second CheckLocation on the same
	// name.
	ReasonAlreadyChecked = "already_checked"
	// ReasonLocationNotFound rejects operations naming a location the
	// loaded rule set does not define.
	ReasonLocationNotFound = "location_not_found"
	// ReasonNotAccessible rejects CheckLocation while the location is
	// unreachable or its access rule fails.
	ReasonNotAccessible = "not_accessible"
	// ReasonRulesNotLoaded rejects operations that need a loaded rule
	// set.
	ReasonRulesNotLoaded = "rules_not_loaded"
	// ReasonRuleSetMismatch rejects applying runtime state captured
	// against a different rule set.
	ReasonRuleSetMismatch = "ruleset_mismatch"
	// ReasonBatchActive rejects BeginBatch while a batch is open.
	ReasonBatchActive = "batch_active"
	// ReasonNoBatch rejects CommitBatch with no batch open.
	ReasonNoBatch = "no_batch"
)

// RejectReason extracts the rejection reason from a command error, or ""
// for nil and foreign errors.
func RejectReason(err error) string {
	if err == nil {
		return ""
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}

// IsReject reports whether err is a command rejection with the given
// reason.
func IsReject(err error, reason string) bool {
	return err != nil && RejectReason(err) == reason
}

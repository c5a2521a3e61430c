package ruleset

import "github.com/samber/oops"

// Load error codes. The table is stable: tools and tests match on codes,
// never on message text.
const (
	// CodeBadJSON means the document is not valid JSON.
	CodeBadJSON = "E001"
	// CodeSchemaViolation means the document does not satisfy the
	// embedded CUE schema.
	CodeSchemaViolation = "E002"
	// CodeUnsupportedVersion means format_version is not one this build
	// reads.
	CodeUnsupportedVersion = "E003"
	// CodeNoRegions means the document declares no regions.
	CodeNoRegions = "E004"
	// CodeBadGraph means region/exit/location structure failed
	// validation (duplicate names, dangling exit targets).
	CodeBadGraph = "E005"
	// CodeBadItems means the item definitions failed catalog validation
	// (duplicate items, tier collisions).
	CodeBadItems = "E006"
)

// CodeOf extracts the load error code, or "" for nil and foreign errors.
func CodeOf(err error) string {
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

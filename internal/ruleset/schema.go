package ruleset

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/samber/oops"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce  sync.Once
	schemaValue cue.Value
	schemaErr   error
)

// schema compiles the embedded CUE schema once. A compile failure here is
// a build defect, not a caller error, so it is surfaced on every use.
func schema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("embedded rule-set schema: %w", err)
			return
		}
		schemaValue = v.LookupPath(cue.ParsePath("#RuleSet"))
		if err := schemaValue.Err(); err != nil {
			schemaErr = fmt.Errorf("embedded rule-set schema: %w", err)
		}
	})
	return schemaValue, schemaErr
}

// validateSchema unifies the raw document bytes with #RuleSet. The
// returned error carries CodeBadJSON or CodeSchemaViolation.
func validateSchema(data []byte) error {
	sch, err := schema()
	if err != nil {
		return oops.Code(CodeSchemaViolation).Wrap(err)
	}

	expr, err := cuejson.Extract("ruleset.json", data)
	if err != nil {
		return oops.Code(CodeBadJSON).Wrapf(err, "rule-set document is not valid JSON")
	}

	ctx := sch.Context()
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return oops.Code(CodeBadJSON).Wrapf(err, "rule-set document is not valid JSON")
	}

	unified := sch.Unify(doc)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		// Collect every schema complaint, not just the first; authors fix
		// documents in one round trip.
		var details []string
		for _, e := range cueerrors.Errors(err) {
			details = append(details, e.Error())
		}
		return oops.
			Code(CodeSchemaViolation).
			With("violations", details).
			Wrapf(err, "rule-set document does not satisfy the schema")
	}
	return nil
}

package session

import (
	"fmt"
	"strings"
)

// ListFilter selects stored sessions. Fields combine with AND; the zero
// value selects everything.
type ListFilter struct {
	// Game restricts to sessions of one game.
	Game string
	// RuleSetDigest restricts to sessions captured against one rule set.
	RuleSetDigest string
	// NamePrefix restricts to session names with this prefix.
	NamePrefix string
	// Limit caps the result count; 0 means no cap.
	Limit int
}

// compile renders the filter to a parameterized SELECT. All values travel
// as placeholders; filter fields never concatenate into SQL text.
func (f ListFilter) compile() (string, []any, error) {
	if f.Limit < 0 {
		return "", nil, fmt.Errorf("negative list limit %d", f.Limit)
	}

	var b strings.Builder
	b.WriteString(`SELECT id, name, game, ruleset_digest, state_digest, state_json, created_at, updated_at FROM sessions`)

	var conds []string
	var args []any
	if f.Game != "" {
		conds = append(conds, "game = ?")
		args = append(args, f.Game)
	}
	if f.RuleSetDigest != "" {
		conds = append(conds, "ruleset_digest = ?")
		args = append(args, f.RuleSetDigest)
	}
	if f.NamePrefix != "" {
		conds = append(conds, "name LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(f.NamePrefix)+"%")
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	// ULIDs sort by creation time, so id DESC is newest first.
	b.WriteString(" ORDER BY id DESC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	return b.String(), args, nil
}

// escapeLike protects LIKE metacharacters in a literal prefix.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

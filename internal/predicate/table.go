// Package predicate provides the injected helper-predicate tables that rule
// evaluation dispatches into, plus the engine-level builtin set. One table
// per game; the engine itself carries no game logic.
package predicate

import (
	"fmt"
	"sort"

	"github.com/quillback/waystone/internal/rules"
)

// Table is a name-keyed predicate registry. It implements
// rules.PredicateTable.
type Table struct {
	entries map[string]rules.Predicate
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]rules.Predicate)}
}

// Register adds a predicate under a name. Registering a duplicate name is an
// error so two sources cannot silently shadow each other.
func (t *Table) Register(name string, p rules.Predicate) error {
	if name == "" {
		return fmt.Errorf("predicate with empty name")
	}
	if p == nil {
		return fmt.Errorf("predicate %q is nil", name)
	}
	if _, dup := t.entries[name]; dup {
		return fmt.Errorf("predicate %q already registered", name)
	}
	t.entries[name] = p
	return nil
}

// MustRegister is Register panicking on error, for static table literals.
func (t *Table) MustRegister(name string, p rules.Predicate) {
	if err := t.Register(name, p); err != nil {
		panic(err)
	}
}

// Merge copies every entry of other into t. Name collisions are errors.
func (t *Table) Merge(other *Table) error {
	if other == nil {
		return nil
	}
	for _, name := range other.Names() {
		if err := t.Register(name, other.entries[name]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup implements rules.PredicateTable.
func (t *Table) Lookup(name string) (rules.Predicate, bool) {
	p, ok := t.entries[name]
	return p, ok
}

// Names implements rules.PredicateTable; the result is sorted.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.entries))
	for name := range t.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of registered predicates.
func (t *Table) Len() int { return len(t.entries) }

// chain resolves names through an ordered list of tables, first hit wins.
type chain struct {
	tables []rules.PredicateTable
}

// Chain combines tables with explicit priority: earlier tables shadow
// later ones. The engine chains the game table ahead of the builtins so a
// game may override an engine-level predicate deliberately.
func Chain(tables ...rules.PredicateTable) rules.PredicateTable {
	out := make([]rules.PredicateTable, 0, len(tables))
	for _, t := range tables {
		if t != nil {
			out = append(out, t)
		}
	}
	return &chain{tables: out}
}

// Lookup implements rules.PredicateTable.
func (c *chain) Lookup(name string) (rules.Predicate, bool) {
	for _, t := range c.tables {
		if p, ok := t.Lookup(name); ok {
			return p, true
		}
	}
	return nil, false
}

// Names implements rules.PredicateTable. Shadowed names appear once.
func (c *chain) Names() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range c.tables {
		for _, name := range t.Names() {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Package session persists tracker runtime state: a SQLite store of named
// sessions and a compressed export/import file format. A session captures
// everything mutable about a run (inventory, checked locations, settings)
// stamped with the rule-set digest it was played against, so a restore
// into a different rule set is detected instead of silently corrupting.
package session

package engine

import (
	"log/slog"
	"sort"
	"time"

	"github.com/samber/oops"

	"github.com/quillback/waystone/internal/inventory"
	"github.com/quillback/waystone/internal/predicate"
	"github.com/quillback/waystone/internal/rules"
	"github.com/quillback/waystone/internal/ruleset"
	"github.com/quillback/waystone/internal/search"
	"github.com/quillback/waystone/internal/snapshot"
)

// Engine owns all mutable tracker state. Construct one with New, load a
// rule set, then drive it through the command methods. The zero value is
// not usable.
//
// Not safe for concurrent use: every method must run on the same logical
// thread. The service layer enforces this with its single-writer loop.
type Engine struct {
	logger      *slog.Logger
	notify      NotifyFunc
	metrics     *Metrics
	stats       Stats
	eval        *rules.Evaluator
	gameTable   *predicate.Table
	scriptTable rules.PredicateTable
	table       rules.PredicateTable

	// Static data, swapped wholesale by LoadRuleSet.
	compiled *ruleset.Compiled
	searcher *search.Searcher

	// Mutable session state.
	inv      *inventory.Inventory
	checked  map[string]struct{}
	settings map[string]any

	revision revisionCounter
	current  *snapshot.Snapshot

	// Reachability cache. result survives invalidation so reads during
	// rule evaluation see the previous fixed point instead of nothing.
	result     *search.Result
	cacheValid bool

	// inRecompute suppresses nested recompute triggers when rule
	// evaluation calls back into reachability queries.
	inRecompute bool
	// searchView is the in-progress read surface while a recompute runs.
	searchView *search.View

	batch *batchState

	maxRuleDepth int
	passBudget   int
}

type batchState struct {
	deferRegions bool
	dirty        bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Components log under their own scope.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotify sets the notification callback.
func WithNotify(fn NotifyFunc) Option {
	return func(e *Engine) { e.notify = fn }
}

// WithPredicates supplies the game's predicate table. It is chained ahead
// of the engine builtins, so a game may deliberately override one.
func WithPredicates(table *predicate.Table) Option {
	return func(e *Engine) { e.gameTable = table }
}

// WithScriptPredicates supplies a script-backed predicate table, such as
// one loaded from a Lua file. It resolves after the game table and before
// the builtins.
func WithScriptPredicates(table rules.PredicateTable) Option {
	return func(e *Engine) { e.scriptTable = table }
}

// WithMaxRuleDepth overrides the evaluator's nesting bound.
func WithMaxRuleDepth(n int) Option {
	return func(e *Engine) { e.maxRuleDepth = n }
}

// WithPassBudget overrides the searcher's fixed-point pass limit.
func WithPassBudget(n int) Option {
	return func(e *Engine) { e.passBudget = n }
}

// New creates an engine with no rule set loaded. Commands that need one
// reject with rules_not_loaded until LoadRuleSet succeeds.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:  slog.Default(),
		metrics: newMetrics(),
		checked: make(map[string]struct{}),
		inv:     inventory.New(nil),
		result:  &search.Result{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")

	evalOpts := []rules.Option{
		rules.WithLogger(e.logger),
		rules.WithDiagnosticHook(func(kind rules.DiagKind, _ string) {
			e.metrics.observeDiagnostic(kind)
		}),
	}
	if e.maxRuleDepth > 0 {
		evalOpts = append(evalOpts, rules.WithMaxDepth(e.maxRuleDepth))
	}
	e.eval = rules.NewEvaluator(evalOpts...)
	// Chain filters nil interfaces, but a nil *predicate.Table wrapped in
	// the interface would slip through; only append tables that exist.
	tables := make([]rules.PredicateTable, 0, 3)
	if e.gameTable != nil {
		tables = append(tables, e.gameTable)
	}
	if e.scriptTable != nil {
		tables = append(tables, e.scriptTable)
	}
	tables = append(tables, predicate.Builtin())
	e.table = predicate.Chain(tables...)

	e.rebuildSnapshot()
	return e
}

// Metrics returns the engine's Prometheus collectors for registration.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Stats returns plain activity counters.
func (e *Engine) Stats() Stats { return e.stats }

// Diagnostics returns the evaluator's fail-closed counters for the live
// rule set.
func (e *Engine) Diagnostics() rules.Diagnostics { return e.eval.Diagnostics() }

// RulesLoaded reports whether a rule set is loaded.
func (e *Engine) RulesLoaded() bool { return e.compiled != nil }

// Game returns the loaded rule set's game name, or "".
func (e *Engine) Game() string {
	if e.compiled == nil {
		return ""
	}
	return e.compiled.Game
}

// RuleSetDigest returns the loaded rule set's content digest, or "".
func (e *Engine) RuleSetDigest() string {
	if e.compiled == nil {
		return ""
	}
	return e.compiled.Digest
}

// Warnings returns the lint warnings of the loaded rule set, or nil.
func (e *Engine) Warnings() []string {
	if e.compiled == nil {
		return nil
	}
	return e.compiled.Warnings
}

// PlayerSlot returns the loaded rule set's player slot, or 0.
func (e *Engine) PlayerSlot() int {
	if e.compiled == nil {
		return 0
	}
	return e.compiled.PlayerSlot
}

// LoadRuleSet compiles the document and atomically swaps in its world,
// catalog, and settings, resetting inventory, checked locations, and all
// caches. On failure the prior state is left intact.
func (e *Engine) LoadRuleSet(data []byte) error {
	compiled, err := ruleset.Compile(data)
	if err != nil {
		e.logger.Warn("rule-set load failed", "code", ruleset.CodeOf(err), "error", err)
		return err
	}
	for _, warning := range compiled.Warnings {
		e.logger.Warn("rule-set warning", "detail", warning)
	}

	e.compiled = compiled
	e.searcher = e.newSearcher()
	e.inv = inventory.New(compiled.Catalog)
	e.checked = make(map[string]struct{})
	e.settings = cloneSettings(compiled.Settings)
	e.eval.ResetDiagnostics()
	e.result = &search.Result{}
	e.cacheValid = false
	e.batch = nil

	e.recompute()
	e.rebuildSnapshot()
	e.emit(EventRuleSetLoaded)

	e.logger.Info("rule set loaded",
		"game", compiled.Game,
		"regions", compiled.World.NumRegions(),
		"exits", compiled.World.NumExits(),
		"items", compiled.Catalog.Len(),
		"digest", compiled.Digest[:12],
	)
	return nil
}

func (e *Engine) newSearcher() *search.Searcher {
	opts := []search.Option{
		search.WithLogger(e.logger),
		search.WithPlayerSlot(e.compiled.PlayerSlot),
	}
	if e.passBudget > 0 {
		opts = append(opts, search.WithPassBudget(e.passBudget))
	}
	return search.New(e.compiled.World, e.compiled.Catalog, e.eval, opts...)
}

// Snapshot returns the current immutable state projection, rebuilding the
// reachability cache first unless a batch is open. Callers must treat the
// result as read-only; every state change allocates a fresh snapshot.
func (e *Engine) Snapshot() *snapshot.Snapshot {
	if e.batch == nil && !e.cacheValid {
		e.recompute()
		e.rebuildSnapshot()
	}
	return e.current
}

// recompute runs the fixed point and revalidates the cache. Nested calls
// during rule evaluation are suppressed; predicates read the in-progress
// view instead.
func (e *Engine) recompute() {
	if e.inRecompute {
		return
	}
	if e.compiled == nil {
		e.result = &search.Result{}
		e.cacheValid = true
		return
	}

	e.inRecompute = true
	defer func() {
		e.inRecompute = false
		e.searchView = nil
	}()

	evalsBefore := e.eval.EvalCount()
	start := time.Now()
	ctx := &evalContext{engine: e}
	e.result = e.searcher.Recompute(ctx, func(v search.View) {
		e.searchView = &v
	})
	e.cacheValid = true

	e.stats.Recomputes++
	e.stats.LastPasses = e.result.Passes
	e.metrics.observeRecompute(e.result.Passes, time.Since(start).Seconds(), e.eval.EvalCount()-evalsBefore)
	if e.result.BudgetExhausted {
		e.logger.Warn("recompute stopped at pass budget", "passes", e.result.Passes)
	}
}

// afterMutation is the single path every state change funnels through:
// invalidate, then either defer to the open batch or recompute and notify
// now.
func (e *Engine) afterMutation(kind EventKind) {
	e.cacheValid = false
	if e.batch != nil {
		e.batch.dirty = true
		e.rebuildSnapshot()
		return
	}
	e.recompute()
	e.rebuildSnapshot()
	e.emit(kind)
}

func (e *Engine) emit(kind EventKind) {
	e.stats.Notifications++
	if e.notify != nil {
		e.notify(kind)
	}
}

// rebuildSnapshot projects current state into a fresh snapshot.
func (e *Engine) rebuildSnapshot() {
	s := snapshot.New()
	s.Revision = e.revision.next()
	s.PlayerSlot = e.PlayerSlot()
	s.Inventory = e.inv.Counts()
	s.Settings = cloneSettings(e.settings)

	s.CheckedLocations = make([]string, 0, len(e.checked))
	for name := range e.checked {
		s.CheckedLocations = append(s.CheckedLocations, name)
	}
	sort.Strings(s.CheckedLocations)

	if e.compiled != nil {
		for _, name := range e.compiled.World.RegionNames() {
			s.RegionReachability[name] = e.result.IsReachable(name)
		}
	}
	s.Events = e.result.EventNames()

	s.Flags[snapshot.FlagBatchActive] = e.batch != nil
	s.Flags[snapshot.FlagCacheValid] = e.cacheValid
	s.Flags[snapshot.FlagRulesLoaded] = e.compiled != nil

	s.Normalize()
	e.current = s
}

func (e *Engine) requireRules() error {
	if e.compiled == nil {
		return oops.Code(ReasonRulesNotLoaded).Errorf("no rule set loaded")
	}
	return nil
}

func cloneSettings(settings map[string]any) map[string]any {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		out[k] = v
	}
	return out
}

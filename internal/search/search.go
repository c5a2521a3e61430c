// Package search computes the reachable subgraph of a rule-gated world by
// fixed-point breadth-first propagation. Reachability can only grow within
// one recompute, which guarantees termination; edges whose rules reference
// other regions' reachability are re-tested through the world's
// indirect-connections index when those regions flip.
package search

import (
	"log/slog"
	"sort"

	"github.com/quillback/waystone/internal/inventory"
	"github.com/quillback/waystone/internal/rules"
	"github.com/quillback/waystone/internal/world"
)

// Context is what the searcher needs from the orchestrator: a rule
// evaluation context whose scope it can point at the edge or location being
// tested.
type Context interface {
	rules.Context
	// SetScope redirects the context's evaluation site.
	SetScope(rules.Scope)
}

// Searcher runs recomputes against one immutable world. A new rule-set load
// builds a new searcher.
type Searcher struct {
	world      *world.World
	eval       *rules.Evaluator
	budget     passBudget
	logger     *slog.Logger
	eventLocs  []*world.Location
	playerSlot int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithPassBudget overrides the computed pass limit.
func WithPassBudget(max int) Option {
	return func(s *Searcher) {
		if max > 0 {
			s.budget.max = max
		}
	}
}

// WithPlayerSlot sets the slot used to match slot-pinned event payloads.
// The searcher carries it directly because the orchestrator's snapshot may
// not reflect a freshly loaded rule set yet when the first recompute runs.
func WithPlayerSlot(slot int) Option {
	return func(s *Searcher) { s.playerSlot = slot }
}

// WithLogger sets the logger for budget warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a searcher over a world and its item catalog. The catalog
// identifies event items so their locations can be swept during the fixed
// point.
func New(w *world.World, cat *inventory.Catalog, eval *rules.Evaluator, opts ...Option) *Searcher {
	if cat == nil {
		cat = inventory.EmptyCatalog()
	}
	s := &Searcher{
		world:     w,
		eval:      eval,
		logger:    slog.Default(),
		eventLocs: w.EventLocations(cat.IsEvent),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type blockedEntry struct {
	exit   *world.Exit
	reason BlockReason
}

// Recompute runs the fixed point and returns the new result. The context is
// read-only state access; publish, when non-nil, receives the in-progress
// view before the first pass so reachability queries made by predicates
// during the search observe the partial state.
func (s *Searcher) Recompute(ctx Context, publish func(View)) *Result {
	reach := make(map[string]struct{}, s.world.NumRegions())
	granted := make(map[string]struct{})
	path := make(map[string]PathStep)
	blocked := make(map[string]blockedEntry)
	pending := make(map[string]*world.Exit)

	if publish != nil {
		publish(View{
			Reachable: func(region string) bool {
				_, ok := reach[region]
				return ok
			},
			EventGranted: func(item string) bool {
				_, ok := granted[item]
				return ok
			},
		})
	}

	flip := func(region string) {
		reach[region] = struct{}{}
		if r, ok := s.world.Region(region); ok {
			for _, e := range r.Exits {
				pending[e.ID()] = e
			}
		}
		for _, e := range s.world.IndirectDependents(region) {
			pending[e.ID()] = e
		}
		// Edges previously blocked on this region clear their stale records
		// on the next pass.
		for id, entry := range blocked {
			if entry.exit.Target == region {
				pending[id] = entry.exit
			}
		}
	}

	// Start regions are reachable unconditionally; their own rules are not
	// consulted because there is no entrance to gate.
	for _, start := range s.world.Starts() {
		if _, ok := reach[start]; !ok {
			flip(start)
		}
	}

	result := &Result{}
	limit := s.budget.limitFor(s.world.NumRegions())
	slot := s.playerSlot

	for {
		if result.Passes >= limit {
			result.BudgetExhausted = true
			s.logger.Warn("reachability pass budget exhausted",
				"passes", result.Passes,
				"limit", limit,
				"regions", s.world.NumRegions(),
			)
			break
		}
		result.Passes++

		// Drain the batch in sorted order so path assignment, and therefore
		// the whole result, is deterministic.
		batch := make([]string, 0, len(pending))
		for id := range pending {
			batch = append(batch, id)
		}
		sort.Strings(batch)
		current := pending
		pending = make(map[string]*world.Exit)

		for _, id := range batch {
			exit := current[id]
			if _, ok := reach[exit.Source]; !ok {
				// Re-added by flip when the source becomes reachable.
				continue
			}
			if exit.Rule != nil && !s.evalBool(ctx, exit.Rule, rules.Scope{Region: exit.Source, Exit: exit.Name}) {
				blocked[id] = blockedEntry{exit: exit, reason: BlockRuleFailed}
				continue
			}
			if _, already := reach[exit.Target]; already {
				delete(blocked, id)
				continue
			}
			if !s.regionRulesPass(ctx, exit.Target) {
				blocked[id] = blockedEntry{exit: exit, reason: BlockRegionRuleFailed}
				continue
			}
			delete(blocked, id)
			flip(exit.Target)
			path[exit.Target] = PathStep{Entrance: id, Previous: exit.Source}
		}

		// Sweep event locations. A new grant can satisfy any blocked rule,
		// so all blocked edges go back on the queue.
		if s.sweepEvents(ctx, reach, granted, slot) {
			for id, entry := range blocked {
				pending[id] = entry.exit
			}
		}

		if len(pending) == 0 {
			break
		}
	}
	ctx.SetScope(rules.Scope{})

	result.Reachable = reach
	result.Unreachable = make(map[string]struct{})
	for _, name := range s.world.RegionNames() {
		if _, ok := reach[name]; !ok {
			result.Unreachable[name] = struct{}{}
		}
	}
	result.Events = granted
	result.Path = path
	result.Blocked = make([]BlockedExit, 0, len(blocked))
	for id, entry := range blocked {
		result.Blocked = append(result.Blocked, BlockedExit{
			Exit:   id,
			Source: entry.exit.Source,
			Target: entry.exit.Target,
			Reason: entry.reason,
		})
	}
	sort.Slice(result.Blocked, func(i, j int) bool { return result.Blocked[i].Exit < result.Blocked[j].Exit })
	return result
}

// sweepEvents grants event items whose holding location is currently
// accessible. Reports whether anything new was granted.
func (s *Searcher) sweepEvents(ctx Context, reach, granted map[string]struct{}, slot int) bool {
	any := false
	for _, loc := range s.eventLocs {
		item := loc.Item.Name
		if _, have := granted[item]; have {
			continue
		}
		if loc.Item.Player != 0 && loc.Item.Player != slot {
			continue
		}
		if _, ok := reach[loc.Region]; !ok {
			continue
		}
		if loc.Rule != nil && !s.evalBool(ctx, loc.Rule, rules.Scope{Region: loc.Region, Location: loc.Name}) {
			continue
		}
		granted[item] = struct{}{}
		any = true
	}
	return any
}

// regionRulesPass evaluates a region's own access rules; all must pass.
func (s *Searcher) regionRulesPass(ctx Context, region string) bool {
	r, ok := s.world.Region(region)
	if !ok {
		return false
	}
	for _, rule := range r.Rules {
		if !s.evalBool(ctx, rule, rules.Scope{Region: region}) {
			return false
		}
	}
	return true
}

// Accessible decides lazy location accessibility: owning region reachable
// under isReachable, and the location's own rule passes.
func (s *Searcher) Accessible(ctx Context, loc *world.Location, isReachable func(string) bool) bool {
	if !isReachable(loc.Region) {
		return false
	}
	if loc.Rule == nil {
		return true
	}
	return s.evalBool(ctx, loc.Rule, rules.Scope{Region: loc.Region, Location: loc.Name})
}

func (s *Searcher) evalBool(ctx Context, rule rules.Node, scope rules.Scope) bool {
	ctx.SetScope(scope)
	return s.eval.EvaluateBool(rule, ctx)
}

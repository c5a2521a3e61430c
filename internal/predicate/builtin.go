package predicate

import "github.com/quillback/waystone/internal/rules"

// Builtin returns the engine-level predicate table. These are game-agnostic
// queries over the evaluation context; game tables are merged on top.
//
// Reachability predicates read the current cache through the context and
// never trigger a recompute, so they are safe to call mid-search.
func Builtin() *Table {
	t := NewTable()

	t.MustRegister("can_reach_region", func(ctx rules.Context, args ...rules.Value) rules.Value {
		region, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "can_reach_region needs a region name"}
		}
		return rules.Bool(ctx.RegionReachable(region))
	})

	t.MustRegister("can_reach_location", func(ctx rules.Context, args ...rules.Value) rules.Value {
		location, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "can_reach_location needs a location name"}
		}
		if v, ok := ctx.CallMethod("can_reach", []rules.Value{rules.String(location)}); ok {
			return v
		}
		return rules.Bool(false)
	})

	t.MustRegister("has", func(ctx rules.Context, args ...rules.Value) rules.Value {
		item, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "has needs an item name"}
		}
		return rules.Bool(ctx.Has(item, intArg(args, 1, 1)))
	})

	t.MustRegister("count", func(ctx rules.Context, args ...rules.Value) rules.Value {
		item, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "count needs an item name"}
		}
		return rules.Number(ctx.Count(item))
	})

	t.MustRegister("has_group", func(ctx rules.Context, args ...rules.Value) rules.Value {
		group, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "has_group needs a group name"}
		}
		return rules.Bool(ctx.HasGroup(group))
	})

	t.MustRegister("count_group", func(ctx rules.Context, args ...rules.Value) rules.Value {
		group, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "count_group needs a group name"}
		}
		return rules.Number(ctx.CountGroup(group))
	})

	t.MustRegister("checked", func(ctx rules.Context, args ...rules.Value) rules.Value {
		location, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "checked needs a location name"}
		}
		return rules.Bool(ctx.LocationChecked(location))
	})

	t.MustRegister("setting", func(ctx rules.Context, args ...rules.Value) rules.Value {
		name, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "setting needs a name"}
		}
		if v, found := ctx.Setting(name); found {
			return v
		}
		return rules.Unresolved{Reason: "unknown setting " + name}
	})

	t.MustRegister("setting_is", func(ctx rules.Context, args ...rules.Value) rules.Value {
		name, ok := stringArg(args, 0)
		if !ok || len(args) < 2 {
			return rules.Unresolved{Reason: "setting_is needs a name and a value"}
		}
		v, found := ctx.Setting(name)
		if !found {
			return rules.Bool(false)
		}
		return rules.Bool(rules.Equal(v, args[1]))
	})

	return t
}

func stringArg(args []rules.Value, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	s, ok := args[i].(rules.String)
	return string(s), ok
}

func intArg(args []rules.Value, i, fallback int) int {
	if i >= len(args) {
		return fallback
	}
	if n, ok := args[i].(rules.Number); ok {
		return int(n)
	}
	return fallback
}

// Package lua loads game predicate tables from sandboxed Lua scripts, so a
// game can ship its helper predicates as data instead of compiled code.
//
// A script evaluates to a table mapping predicate names to functions:
//
//	return {
//	  can_cross_gap = function(state, item)
//	    return state.has("Hookshot") or state.count(item) >= 2
//	  end,
//	}
//
// Each function receives a state table bridging the read-only evaluation
// context, followed by the evaluated rule arguments. Return values convert
// back into rule values; a runtime error fails closed.
package lua

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/quillback/waystone/internal/rules"
)

// safeLibrary is a Lua library safe to open in the sandbox.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// Safe: base, table, string, math. Blocked: os, io, debug, package.
func safeLibraries() []safeLibrary {
	return []safeLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// unsafeBaseFunctions are base-library entries that reach the filesystem and
// are nilled out after opening.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// ScriptTable is a predicate table backed by one sandboxed Lua state. It
// implements rules.PredicateTable. Calls are synchronous on the engine
// thread; the table is not safe for concurrent use.
type ScriptTable struct {
	state   *lua.LState
	fns     map[string]*lua.LFunction
	names   []string
	current rules.Context
}

// LoadFile reads and loads a predicate script from disk.
func LoadFile(path string) (*ScriptTable, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read predicate script: %w", err)
	}
	return LoadScript(path, string(src))
}

// LoadScript compiles the source in a fresh sandboxed state and collects the
// returned predicate functions. name appears in error messages.
func LoadScript(name, src string) (*ScriptTable, error) {
	state := lua.NewState(lua.Options{SkipOpenLibs: true})
	ok := false
	defer func() {
		if !ok {
			state.Close()
		}
	}()

	for _, lib := range safeLibraries() {
		if err := state.CallByParam(lua.P{
			Fn:      state.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return nil, fmt.Errorf("open lua library %s: %w", lib.name, err)
		}
	}
	for _, fn := range unsafeBaseFunctions {
		state.SetGlobal(fn, lua.LNil)
	}

	if err := state.DoString(src); err != nil {
		return nil, fmt.Errorf("predicate script %s: %w", name, err)
	}

	ret := state.Get(-1)
	state.Pop(1)
	table, isTable := ret.(*lua.LTable)
	if !isTable {
		return nil, fmt.Errorf("predicate script %s must return a table, got %s", name, ret.Type())
	}

	st := &ScriptTable{state: state, fns: make(map[string]*lua.LFunction)}
	var badKey error
	table.ForEach(func(k, v lua.LValue) {
		key, isString := k.(lua.LString)
		if !isString {
			badKey = fmt.Errorf("predicate script %s: non-string key %s", name, k.String())
			return
		}
		fn, isFn := v.(*lua.LFunction)
		if !isFn {
			badKey = fmt.Errorf("predicate script %s: entry %q is not a function", name, string(key))
			return
		}
		st.fns[string(key)] = fn
		st.names = append(st.names, string(key))
	})
	if badKey != nil {
		return nil, badKey
	}

	st.installStateBridge()
	ok = true
	return st, nil
}

// Close releases the Lua state.
func (t *ScriptTable) Close() {
	t.state.Close()
}

// Lookup implements rules.PredicateTable.
func (t *ScriptTable) Lookup(name string) (rules.Predicate, bool) {
	fn, found := t.fns[name]
	if !found {
		return nil, false
	}
	return func(ctx rules.Context, args ...rules.Value) rules.Value {
		return t.call(ctx, name, fn, args)
	}, true
}

// Names implements rules.PredicateTable.
func (t *ScriptTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// installStateBridge creates the `state` table handed to every predicate
// call. Its closures read t.current, which call swaps in per invocation.
func (t *ScriptTable) installStateBridge() {
	L := t.state
	bridge := L.NewTable()

	L.SetField(bridge, "has", L.NewFunction(func(L *lua.LState) int {
		item := L.CheckString(1)
		n := L.OptInt(2, 1)
		L.Push(lua.LBool(t.current.Has(item, n)))
		return 1
	}))
	L.SetField(bridge, "count", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(t.current.Count(L.CheckString(1))))
		return 1
	}))
	L.SetField(bridge, "has_group", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(t.current.HasGroup(L.CheckString(1))))
		return 1
	}))
	L.SetField(bridge, "count_group", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(t.current.CountGroup(L.CheckString(1))))
		return 1
	}))
	L.SetField(bridge, "checked", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(t.current.LocationChecked(L.CheckString(1))))
		return 1
	}))
	L.SetField(bridge, "can_reach_region", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(t.current.RegionReachable(L.CheckString(1))))
		return 1
	}))
	L.SetField(bridge, "setting", L.NewFunction(func(L *lua.LState) int {
		if v, ok := t.current.Setting(L.CheckString(1)); ok {
			L.Push(valueToLua(L, v))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	L.SetField(bridge, "player_slot", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(t.current.Snapshot().PlayerSlot))
		return 1
	}))
	L.SetField(bridge, "scope", L.NewFunction(func(L *lua.LState) int {
		scope := t.current.Scope()
		out := L.NewTable()
		L.SetField(out, "region", lua.LString(scope.Region))
		L.SetField(out, "exit", lua.LString(scope.Exit))
		L.SetField(out, "location", lua.LString(scope.Location))
		L.Push(out)
		return 1
	}))

	L.SetGlobal("state", bridge)
}

// call invokes one predicate function, converting arguments in and the
// result out. Script errors fail closed as Unresolved.
func (t *ScriptTable) call(ctx rules.Context, name string, fn *lua.LFunction, args []rules.Value) rules.Value {
	prev := t.current
	t.current = ctx
	defer func() { t.current = prev }()

	L := t.state
	callArgs := make([]lua.LValue, 0, len(args)+1)
	callArgs = append(callArgs, L.GetGlobal("state"))
	for _, a := range args {
		callArgs = append(callArgs, valueToLua(L, a))
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, callArgs...); err != nil {
		return rules.Unresolvedf("lua predicate %s: %v", name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return luaToValue(ret)
}

func valueToLua(L *lua.LState, v rules.Value) lua.LValue {
	switch t := v.(type) {
	case rules.Bool:
		return lua.LBool(t)
	case rules.Number:
		return lua.LNumber(t)
	case rules.String:
		return lua.LString(t)
	case rules.List:
		out := L.NewTable()
		for i, el := range t {
			out.RawSetInt(i+1, valueToLua(L, el))
		}
		return out
	default:
		return lua.LNil
	}
}

func luaToValue(v lua.LValue) rules.Value {
	switch t := v.(type) {
	case lua.LBool:
		return rules.Bool(t)
	case lua.LNumber:
		return rules.Number(t)
	case lua.LString:
		return rules.String(t)
	case *lua.LTable:
		out := rules.List{}
		t.ForEach(func(k, el lua.LValue) {
			if _, isNum := k.(lua.LNumber); isNum {
				out = append(out, luaToValue(el))
			}
		})
		return out
	case *lua.LNilType:
		return rules.Unresolved{Reason: "lua predicate returned nil"}
	default:
		return rules.Unresolvedf("lua predicate returned %s", v.Type())
	}
}

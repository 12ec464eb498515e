// Package script implements the Script Sandbox Host: a fresh, restricted
// gopher-lua interpreter per invocation, used to run extension tool
// implementations and lifecycle hooks. The interpreter has no direct
// filesystem or OS access — its "tools" table closures re-enter the Tool
// Dispatcher and Entity/Section Store instead.
package script

import (
	"context"
	"encoding/json"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/vswrite/agent-core/internal/store"
	"github.com/vswrite/agent-core/internal/tools"
	"github.com/vswrite/agent-core/pkg/models"
)

// Host constructs a sandboxed interpreter scoped to one workspace and
// dispatches tools.* calls made from Lua back through dispatcher and store.
type Host struct {
	Workspace    string
	ShellTimeout int
	Dispatcher   *tools.Dispatcher
	Store        *store.Store
}

// Call loads script (defining its top-level functions) and invokes
// functionName with the single JSON-decoded argument argsJSON, returning
// the function's return value re-encoded as a string (JSON for
// tables/arrays, a plain literal for scalars).
func (h *Host) Call(ctx context.Context, script, functionName, argsJSON string) (string, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	for _, open := range []func(*lua.LState) int{
		lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath, lua.OpenCoroutine,
	} {
		open(L)
	}
	sandboxGlobals(L)

	toolsTable := h.buildToolsTable(ctx, L)
	L.SetGlobal("tools", toolsTable)
	addUtilities(L)

	if err := L.DoString(script); err != nil {
		return "", fmt.Errorf("load script: %w", err)
	}

	fn := L.GetGlobal(functionName)
	if fn.Type() != lua.LTFunction {
		return "", fmt.Errorf("function %q not found", functionName)
	}

	var argsVal any
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &argsVal); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}
	}
	luaArgs := goToLua(L, argsVal)

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, luaArgs); err != nil {
		return "", fmt.Errorf("call %s: %w", functionName, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return luaResultToString(ret)
}

// sandboxGlobals removes the dangerous subset of whatever the selectively
// opened libraries provided: code loading, raw-table bypass of
// metatables, GC control, and bytecode extraction.
func sandboxGlobals(L *lua.LState) {
	for _, name := range []string{
		"load", "loadstring", "dofile", "loadfile",
		"rawget", "rawset", "rawequal", "rawlen",
		"collectgarbage", "newproxy", "require",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	if stringTable, ok := L.GetGlobal("string").(*lua.LTable); ok {
		stringTable.RawSetString("dump", lua.LNil)
	}
}

// addUtilities injects json_encode/json_decode and a print that routes to
// the host logger instead of stdout (the interpreter has no io library).
func addUtilities(L *lua.LState) {
	L.SetGlobal("json_encode", L.NewFunction(func(L *lua.LState) int {
		v := luaToGo(L.CheckAny(1))
		payload, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			L.RaiseError("json_encode: %v", err)
			return 0
		}
		L.Push(lua.LString(payload))
		return 1
	}))
	L.SetGlobal("json_decode", L.NewFunction(func(L *lua.LState) int {
		s := L.CheckString(1)
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			L.RaiseError("json_decode: %v", err)
			return 0
		}
		L.Push(goToLua(L, v))
		return 1
	}))
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		args := make([]any, 0, top)
		for i := 1; i <= top; i++ {
			args = append(args, L.ToStringMeta(L.Get(i)).String())
		}
		logPrint(args...)
		return 0
	}))
}

func luaResultToString(v lua.LValue) (string, error) {
	switch v.Type() {
	case lua.LTNil:
		return "nil", nil
	case lua.LTBool, lua.LTNumber, lua.LTString:
		return v.String(), nil
	case lua.LTTable:
		payload, err := json.Marshal(luaToGo(v))
		if err != nil {
			return "", fmt.Errorf("encode result: %w", err)
		}
		return string(payload), nil
	default:
		return v.String(), nil
	}
}

// errorResultMessage turns a models.ToolResult with IsError set into an
// error the Lua runtime raises to the calling script.
func toolCallError(result models.ToolResult) error {
	return fmt.Errorf("%s", result.Content)
}

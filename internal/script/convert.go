package script

import lua "github.com/yuin/gopher-lua"

// luaToGo converts a Lua value into a plain Go value suitable for
// encoding/json: LTable becomes []any when it looks like a sequence
// (1..n integer keys with no holes and no string keys), or map[string]any
// otherwise.
func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		return luaTableToGo(val)
	default:
		return nil
	}
}

func luaTableToGo(t *lua.LTable) any {
	maxN := t.Len()
	total := 0
	hasStringKey := false
	t.ForEach(func(k, _ lua.LValue) {
		total++
		if _, ok := k.(lua.LString); ok {
			hasStringKey = true
		}
	})

	if maxN > 0 && total == maxN && !hasStringKey {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = luaToGo(t.RawGetInt(i))
		}
		return arr
	}

	m := make(map[string]any, total)
	t.ForEach(func(k, val lua.LValue) {
		m[k.String()] = luaToGo(val)
	})
	return m
}

// goToLua converts a plain Go value (as produced by encoding/json.Unmarshal
// into `any`) into the equivalent Lua value.
func goToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, goToLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, goToLua(L, item))
		}
		return t
	default:
		return lua.LNil
	}
}

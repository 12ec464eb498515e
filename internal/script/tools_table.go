package script

import (
	"context"
	"encoding/json"

	lua "github.com/yuin/gopher-lua"

	"github.com/vswrite/agent-core/pkg/models"
)

// buildToolsTable creates the `tools` global: native closures over ctx and
// h.Workspace that re-enter the Tool Dispatcher, plus a tools.entities
// sub-table over h.Store. Scripts never touch the filesystem directly.
func (h *Host) buildToolsTable(ctx context.Context, L *lua.LState) *lua.LTable {
	t := L.NewTable()

	dispatch := func(name string, argsJSON []byte) (string, error) {
		result := h.Dispatcher.Dispatch(ctx, models.ToolCall{ID: "lua", Name: name, Args: string(argsJSON)})
		if result.IsError {
			return "", toolCallError(result)
		}
		return result.Content, nil
	}

	register := func(name string, argsFn func(L *lua.LState) (map[string]any, error)) {
		t.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			argMap, err := argsFn(L)
			if err != nil {
				L.RaiseError("%s: %v", name, err)
				return 0
			}
			payload, err := json.Marshal(argMap)
			if err != nil {
				L.RaiseError("%s: encode arguments: %v", name, err)
				return 0
			}
			content, err := dispatch(name, payload)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(lua.LString(content))
			return 1
		}))
	}

	register("read_file", func(L *lua.LState) (map[string]any, error) {
		path := L.CheckString(1)
		offset := L.OptInt(2, 1)
		limit := L.OptInt(3, 4000)
		return map[string]any{"path": path, "offset": offset, "limit": limit}, nil
	})
	register("write_file", func(L *lua.LState) (map[string]any, error) {
		return map[string]any{"path": L.CheckString(1), "content": L.CheckString(2)}, nil
	})
	register("append_file", func(L *lua.LState) (map[string]any, error) {
		return map[string]any{"path": L.CheckString(1), "content": L.CheckString(2)}, nil
	})
	register("delete_file", func(L *lua.LState) (map[string]any, error) {
		return map[string]any{"path": L.CheckString(1)}, nil
	})
	register("list_dir", func(L *lua.LState) (map[string]any, error) {
		return map[string]any{"path": L.OptString(1, ".")}, nil
	})
	register("glob", func(L *lua.LState) (map[string]any, error) {
		return map[string]any{"pattern": L.CheckString(1), "path": L.OptString(2, ".")}, nil
	})
	register("grep", func(L *lua.LState) (map[string]any, error) {
		return map[string]any{"pattern": L.CheckString(1), "path": L.OptString(2, ".")}, nil
	})
	register("run_shell", func(L *lua.LState) (map[string]any, error) {
		timeout := L.OptInt(3, h.ShellTimeout)
		if timeout <= 0 || timeout > 60 {
			timeout = 60
		}
		return map[string]any{
			"command": L.CheckString(1),
			"cwd":     L.OptString(2, "."),
			"timeout": timeout,
		}, nil
	})

	t.RawSetString("entities", h.buildEntitiesTable(L))
	return t
}

// buildEntitiesTable creates tools.entities over h.Store.
func (h *Host) buildEntitiesTable(L *lua.LState) *lua.LTable {
	entities := L.NewTable()

	asJSON := func(L *lua.LState, v any, err error) int {
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		if v == nil {
			L.Push(lua.LString("null"))
			return 1
		}
		payload, mErr := json.MarshalIndent(v, "", "  ")
		if mErr != nil {
			L.RaiseError("encode result: %v", mErr)
			return 0
		}
		L.Push(lua.LString(payload))
		return 1
	}

	entities.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		rec, err := h.Store.GetEntity(L.CheckString(1))
		return asJSON(L, rec, err)
	}))
	entities.RawSetString("list_by_type", L.NewFunction(func(L *lua.LState) int {
		list, err := h.Store.ListByType(L.CheckString(1))
		return asJSON(L, list, err)
	}))
	entities.RawSetString("list_all", L.NewFunction(func(L *lua.LState) int {
		list, err := h.Store.ListAll()
		return asJSON(L, list, err)
	}))
	entities.RawSetString("search", L.NewFunction(func(L *lua.LState) int {
		list, err := h.Store.Search(L.CheckString(1))
		return asJSON(L, list, err)
	}))
	entities.RawSetString("get_relationships", L.NewFunction(func(L *lua.LState) int {
		rels, err := h.Store.GetRelationships(L.CheckString(1))
		return asJSON(L, rels, err)
	}))
	entities.RawSetString("add_tag", L.NewFunction(func(L *lua.LState) int {
		tag, err := h.Store.AddTag(L.CheckString(1), L.CheckString(2), L.CheckInt(3), L.CheckInt(4))
		return asJSON(L, tag, err)
	}))
	entities.RawSetString("remove_tag", L.NewFunction(func(L *lua.LState) int {
		removed, err := h.Store.RemoveTag(L.CheckString(1), L.CheckString(2))
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(lua.LBool(removed))
		return 1
	}))
	entities.RawSetString("get_tags", L.NewFunction(func(L *lua.LState) int {
		tags, err := h.Store.GetTags(L.CheckString(1))
		return asJSON(L, tags, err)
	}))
	entities.RawSetString("get_section", L.NewFunction(func(L *lua.LState) int {
		sec, err := h.Store.GetSection(L.CheckString(1))
		return asJSON(L, sec, err)
	}))
	entities.RawSetString("list_sections", L.NewFunction(func(L *lua.LState) int {
		list, err := h.Store.ListSections()
		return asJSON(L, list, err)
	}))

	return entities
}

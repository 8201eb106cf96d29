package script

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"
)

// toNode converts a Lua value into a YAML node the component descriptors can
// decode. Tables with only the keys 1..n become sequences; any other table
// becomes a mapping with string keys.
func toNode(lv lua.LValue) (*yaml.Node, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case lua.LBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(v))}, nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(f), 10)}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}, nil
	case lua.LString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(v)}, nil
	case *lua.LTable:
		return tableToNode(v)
	default:
		return nil, fmt.Errorf("cannot convert lua %s", lv.Type())
	}
}

func tableToNode(t *lua.LTable) (*yaml.Node, error) {
	n := t.Len()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })

	if n > 0 && n == count {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i := 1; i <= n; i++ {
			item, err := toNode(t.RawGetInt(i))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Content = append(seq.Content, item)
		}
		return seq, nil
	}

	keys := make([]string, 0, count)
	var keyErr error
	t.ForEach(func(k, _ lua.LValue) {
		s, ok := k.(lua.LString)
		if !ok && keyErr == nil {
			keyErr = fmt.Errorf("table key %s is not a string", k.String())
		}
		keys = append(keys, string(s))
	})
	if keyErr != nil {
		return nil, keyErr
	}
	slices.Sort(keys)

	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range keys {
		val, err := toNode(t.RawGetString(key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			val)
	}
	return m, nil
}

// fromNode converts a YAML node produced by a component descriptor into a
// Lua value.
func fromNode(L *lua.LState, node *yaml.Node) (lua.LValue, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return toLua(L, v)
}

func toLua(L *lua.LState, v any) (lua.LValue, error) {
	switch v := v.(type) {
	case nil:
		return lua.LNil, nil
	case bool:
		return lua.LBool(v), nil
	case int:
		return lua.LNumber(v), nil
	case int64:
		return lua.LNumber(v), nil
	case uint64:
		return lua.LNumber(v), nil
	case float64:
		return lua.LNumber(v), nil
	case string:
		return lua.LString(v), nil
	case []any:
		t := L.NewTable()
		for _, item := range v {
			lv, err := toLua(L, item)
			if err != nil {
				return nil, err
			}
			t.Append(lv)
		}
		return t, nil
	case map[string]any:
		t := L.NewTable()
		for key, item := range v {
			lv, err := toLua(L, item)
			if err != nil {
				return nil, err
			}
			t.RawSetString(key, lv)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

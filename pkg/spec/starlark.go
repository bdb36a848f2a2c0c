package spec

import (
	"encoding/json"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// evalStarlarkSpec executes a Starlark spec script and returns the JSON
// encoding of its global "spec" value. Scripts let callers generate large or
// repetitive documents procedurally while the result flows through the same
// validation path as a literal document.
func evalStarlarkSpec(src []byte) ([]byte, error) {
	thread := &starlark.Thread{
		Name: "droidseed",
		Print: func(_ *starlark.Thread, msg string) {
			// Script output is discarded; the spec value is the contract.
		},
	}

	predeclared := starlark.StringDict{
		"struct": starlarkstruct.Default,
	}

	globals, err := starlark.ExecFile(thread, "spec.star", src, predeclared)
	if err != nil {
		return nil, fmt.Errorf("starlark execution failed: %w", err)
	}

	val, ok := globals["spec"]
	if !ok {
		return nil, fmt.Errorf("starlark spec script must define a global named spec")
	}

	goVal, err := fromStarlarkValue(val)
	if err != nil {
		return nil, fmt.Errorf("convert starlark spec: %w", err)
	}

	data, err := json.Marshal(goVal)
	if err != nil {
		return nil, fmt.Errorf("encode starlark spec: %w", err)
	}
	return data, nil
}

// fromStarlarkValue converts a Starlark value to the plain Go value it
// JSON-encodes as.
func fromStarlarkValue(v starlark.Value) (interface{}, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer out of range: %s", val.String())
		}
		return i, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		out := make([]interface{}, 0, val.Len())
		iter := val.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			goElem, err := fromStarlarkValue(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, goElem)
		}
		return out, nil
	case starlark.Tuple:
		out := make([]interface{}, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			goElem, err := fromStarlarkValue(val.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, goElem)
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]interface{}, val.Len())
		for _, key := range val.Keys() {
			keyStr, ok := key.(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict keys must be strings, got %s", key.Type())
			}
			item, _, err := val.Get(key)
			if err != nil {
				return nil, err
			}
			goItem, err := fromStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			out[string(keyStr)] = goItem
		}
		return out, nil
	case *starlarkstruct.Struct:
		d := starlark.StringDict{}
		val.ToStringDict(d)
		out := make(map[string]interface{}, len(d))
		for name, field := range d {
			goField, err := fromStarlarkValue(field)
			if err != nil {
				return nil, err
			}
			out[name] = goField
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}

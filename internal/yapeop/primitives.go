package yapeop

import (
	"fmt"
	"reflect"
)

func getItem(obj any, key any) (any, error) {
	switch o := obj.(type) {
	case Indexer:
		return o.GetItem(key)
	case *Dict:
		k, _ := key.(string)
		v, ok := o.Get(k)
		if !ok {
			return nil, fmt.Errorf("yapeop: key %q not found", k)
		}
		return v, nil
	case map[string]any:
		v, ok := o[fmt.Sprint(key)]
		if !ok {
			return nil, fmt.Errorf("yapeop: key %q not found", key)
		}
		return v, nil
	}

	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		idx, err := asInt(key)
		if err != nil {
			return nil, fmt.Errorf("yapeop: indexing %T: %w", obj, err)
		}
		if idx < 0 || idx >= rv.Len() {
			return nil, fmt.Errorf("yapeop: index %d out of range for length %d", idx, rv.Len())
		}
		return rv.Index(idx).Interface(), nil
	case reflect.Map:
		kv := reflect.ValueOf(key)
		v := rv.MapIndex(kv)
		if !v.IsValid() {
			return nil, fmt.Errorf("yapeop: key %v not found", key)
		}
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("yapeop: value of type %T does not support GetItem", obj)
}

func getAttr(obj any, name string) (any, error) {
	switch o := obj.(type) {
	case Attrer:
		return o.GetAttr(name)
	case *Dict:
		v, ok := o.Get(name)
		if !ok {
			return nil, fmt.Errorf("yapeop: attribute %q not found", name)
		}
		return v, nil
	case map[string]any:
		v, ok := o[name]
		if !ok {
			return nil, fmt.Errorf("yapeop: attribute %q not found", name)
		}
		return v, nil
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		f := rv.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	return nil, fmt.Errorf("yapeop: value of type %T has no attribute %q", obj, name)
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Int64 {
		return int(rv.Int()), nil
	}
	return 0, fmt.Errorf("index must be an integer, got %T", v)
}

func callFn(fn any, args []any, kwargs *Dict) (any, error) {
	if ref, ok := fn.(*FuncRef); ok {
		f, ok := LookupFunc(ref.Name)
		if !ok {
			return nil, fmt.Errorf("yapeop: no function registered under name %q", ref.Name)
		}
		fn = f
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("yapeop: value of type %T is not callable", fn)
	}

	in := make([]reflect.Value, 0, len(args)+kwargs.Len())
	rt := rv.Type()
	variadic := rt.IsVariadic()
	for i, a := range args {
		in = append(in, coerceArg(a, rt, i, variadic))
	}
	// Kwargs are passed positionally, after Args, in their declared
	// (insertion) order -- Go has no named-parameter calling convention,
	// so a registered function receiving kwargs must accept them as
	// trailing positional parameters. The Dict itself is never passed to
	// Fn, and keys are not matched to parameter names.
	for i, k := range kwargs.Keys() {
		v, _ := kwargs.Get(k)
		in = append(in, coerceArg(v, rt, len(args)+i, variadic))
	}

	out := rv.Call(in)
	return unpackResults(out)
}

func coerceArg(a any, rt reflect.Type, pos int, variadic bool) reflect.Value {
	if a == nil {
		var paramType reflect.Type
		if variadic && pos >= rt.NumIn()-1 {
			paramType = rt.In(rt.NumIn() - 1).Elem()
		} else if pos < rt.NumIn() {
			paramType = rt.In(pos)
		}
		if paramType != nil {
			return reflect.Zero(paramType)
		}
		return reflect.ValueOf(&a).Elem()
	}
	return reflect.ValueOf(a)
}

func unpackResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if err, ok := out[0].Interface().(error); ok {
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		last := out[len(out)-1]
		if err, ok := last.Interface().(error); ok {
			vals := make([]any, len(out)-1)
			for i := range vals {
				vals[i] = out[i].Interface()
			}
			if err != nil {
				return vals, err
			}
			if len(vals) == 1 {
				return vals[0], nil
			}
			return vals, nil
		}
		vals := make([]any, len(out))
		for i := range vals {
			vals[i] = out[i].Interface()
		}
		return vals, nil
	}
}

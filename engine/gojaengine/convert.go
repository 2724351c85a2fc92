package gojaengine

import (
	"fmt"
	"strconv"

	"github.com/dop251/goja"

	"github.com/chazu/tether/value"
)

// maxDepth bounds nesting when converting script values, which also stops
// cyclic objects.
const maxDepth = 512

// fromJS converts a script value into a value.Value. undefined becomes
// null, as it does in JSON. Functions, symbols, bigints and exotic objects
// are rejected.
func fromJS(v goja.Value) (value.Value, error) {
	return fromJSDepth(v, 0)
}

func fromJSDepth(v goja.Value, depth int) (value.Value, error) {
	if depth > maxDepth {
		return value.Null(), fmt.Errorf("%w: nesting deeper than %d (cyclic value?)", value.ErrUnrepresentable, maxDepth)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return value.Null(), nil
	}
	if obj, ok := v.(*goja.Object); ok {
		return objectFromJS(obj, depth)
	}
	switch x := v.Export().(type) {
	case bool:
		return value.Bool(x), nil
	case int64:
		return value.Number(float64(x)), nil
	case float64:
		return value.Number(x), nil
	case string:
		return value.String(x), nil
	}
	return value.Null(), fmt.Errorf("%w: %s", value.ErrUnrepresentable, v.String())
}

func objectFromJS(obj *goja.Object, depth int) (value.Value, error) {
	switch obj.ClassName() {
	case "Array":
		n := int(obj.Get("length").ToInteger())
		items := make([]value.Value, 0, n)
		for i := 0; i < n; i++ {
			item, err := fromJSDepth(obj.Get(strconv.Itoa(i)), depth+1)
			if err != nil {
				return value.Null(), err
			}
			items = append(items, item)
		}
		return value.Array(items...), nil
	case "Object":
		o := value.NewObject()
		for _, key := range obj.Keys() {
			item, err := fromJSDepth(obj.Get(key), depth+1)
			if err != nil {
				return value.Null(), err
			}
			o.Set(key, item)
		}
		return value.FromObject(o), nil
	}
	return value.Null(), fmt.Errorf("%w: %s object", value.ErrUnrepresentable, obj.ClassName())
}

// toJS converts a value.Value into a fresh script value.
func toJS(vm *goja.Runtime, v value.Value) goja.Value {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return vm.ToValue(b)
	case value.KindNumber:
		n, _ := v.AsNumber()
		return vm.ToValue(n)
	case value.KindString:
		s, _ := v.AsString()
		return vm.ToValue(s)
	case value.KindArray:
		items, _ := v.AsArray()
		elems := make([]interface{}, len(items))
		for i, item := range items {
			elems[i] = toJS(vm, item)
		}
		return vm.NewArray(elems...)
	case value.KindObject:
		o, _ := v.AsObject()
		obj := vm.NewObject()
		for _, m := range o.Members() {
			_ = obj.Set(m.Key, toJS(vm, m.Value))
		}
		return obj
	}
	return goja.Null()
}

package layering

import "reflect"

// Clone returns a deep copy of value. Maps, slices, arrays, pointers and
// exported struct fields are copied; unexported struct fields are carried
// over shallowly and other values are returned as is. References that are
// shared or cyclic in value are shared or cyclic in the copy.
func Clone[T any](value T) T {
	c := cloner{seen: map[visit]reflect.Value{}}
	cloned := c.value(reflect.ValueOf(value))
	if !cloned.IsValid() {
		var zero T
		return zero
	}
	if out, ok := cloned.Interface().(T); ok {
		return out
	}
	return value
}

// visit identifies a reference already copied. Slices sharing a backing
// array but with different lengths are distinct copies.
type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

type cloner struct {
	seen map[visit]reflect.Value
}

func (c cloner) value(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{typ: v.Type(), ptr: v.Pointer()}
		if clone, ok := c.seen[key]; ok {
			return clone
		}
		clone := reflect.New(v.Type().Elem())
		c.seen[key] = clone
		clone.Elem().Set(c.value(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		return c.value(v.Elem()).Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if field := clone.Field(i); field.CanSet() {
				field.Set(c.value(v.Field(i)))
			}
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{typ: v.Type(), ptr: v.Pointer()}
		if clone, ok := c.seen[key]; ok {
			return clone
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.seen[key] = clone
		for iter := v.MapRange(); iter.Next(); {
			clone.SetMapIndex(iter.Key(), c.value(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{typ: v.Type(), ptr: v.Pointer(), len: v.Len()}
		if clone, ok := c.seen[key]; ok {
			return clone
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		c.seen[key] = clone
		c.copyElements(clone, v)
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		c.copyElements(clone, v)
		return clone
	default:
		return reflect.ValueOf(v.Interface())
	}
}

func (c cloner) copyElements(dst, src reflect.Value) {
	for i := 0; i < src.Len(); i++ {
		dst.Index(i).Set(c.value(src.Index(i)))
	}
}

package metadata

import (
	"fmt"
	"reflect"

	"github.com/phobologic/docreflect/pkg/callable"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// bind converts args to the input types of ft, skipping the first offset
// inputs (a method expression's receiver). For a variadic ft, a final slice
// argument of the variadic type is passed as the whole list; spread reports
// that the call must go through CallSlice.
func bind(ft reflect.Type, offset int, args []any) (in []reflect.Value, spread bool, err error) {
	numIn := ft.NumIn() - offset
	fixed := numIn
	if ft.IsVariadic() {
		fixed = numIn - 1
		if len(args) < fixed {
			return nil, false, fmt.Errorf("%w: want at least %d arguments, got %d", callable.ErrArgumentMismatch, fixed, len(args))
		}
		spread = len(args) == numIn && isList(args[fixed], ft.In(ft.NumIn()-1))
	} else if len(args) != numIn {
		return nil, false, fmt.Errorf("%w: want %d arguments, got %d", callable.ErrArgumentMismatch, numIn, len(args))
	}

	in = make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		switch {
		case i < fixed:
			pt = ft.In(offset + i)
		case spread:
			pt = ft.In(ft.NumIn() - 1)
		default:
			pt = ft.In(ft.NumIn() - 1).Elem()
		}
		v, err := coerce(a, pt)
		if err != nil {
			return nil, false, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, spread, nil
}

// isList reports whether a can stand for the whole variadic list of type st.
func isList(a any, st reflect.Type) bool {
	if a == nil {
		return false
	}
	at := reflect.TypeOf(a)
	return at.Kind() == reflect.Slice && (at.AssignableTo(st) || at.ConvertibleTo(st))
}

// call invokes fn with bound arguments.
func call(fn reflect.Value, in []reflect.Value, spread bool) (any, error) {
	if spread {
		return results(fn.CallSlice(in))
	}
	return results(fn.Call(in))
}

// coerce turns a into a value of type pt. nil becomes the zero value.
func coerce(a any, pt reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(pt), nil
	}
	v := reflect.ValueOf(a)
	vt := v.Type()
	if vt.AssignableTo(pt) {
		return v, nil
	}
	if convertible(vt, pt) {
		return v.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", callable.ErrArgumentMismatch, vt, pt)
}

// convertible excludes the conversions Go allows but nobody means here:
// integers to strings and slices to arrays.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	if to.Kind() == reflect.String && from.Kind() != reflect.String {
		return false
	}
	if from.Kind() == reflect.Slice && to.Kind() == reflect.Array {
		return false
	}
	return true
}

// results maps Go results to (value, error). A trailing error result becomes
// the error; one remaining result is returned as is, several as []any.
func results(out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			err = out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	}
	values := make([]any, len(out))
	for i, o := range out {
		values[i] = o.Interface()
	}
	return values, err
}

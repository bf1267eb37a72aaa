package callable

import (
	"fmt"
	"reflect"
	"strings"
)

// MethodSeparator separates class and method in a static method string.
const MethodSeparator = "::"

// Pair is an explicit (target, method) callable. Target is either an instance
// or a class name.
type Pair struct {
	Target any
	Method string
}

// Shape is the result of classifying a callable value.
type Shape struct {
	Kind Kind
	// Object is the instance for InvokableObject and BoundMethodPair.
	Object any
	// Class is the class name for the static forms.
	Class string
	// Name is the function or method name; empty for closures.
	Name string
}

// Classify determines which callable representation value uses. The checks
// run in a fixed order since a value can satisfy more than one of them.
func Classify(value any) (Shape, error) {
	if value == nil {
		return Shape{}, fmt.Errorf("%w: nil", ErrInvalidCallableShape)
	}

	rv := reflect.ValueOf(value)

	if rv.Kind() == reflect.Func {
		if rv.IsNil() {
			return Shape{}, fmt.Errorf("%w: nil function", ErrInvalidCallableShape)
		}
		return Shape{Kind: Closure}, nil
	}

	if target, method, ok := asPair(value); ok {
		if method == "" {
			return Shape{}, fmt.Errorf("%w: pair with empty method name", ErrInvalidCallableShape)
		}
		if class, ok := target.(string); ok {
			if class == "" {
				return Shape{}, fmt.Errorf("%w: pair with empty class name", ErrInvalidCallableShape)
			}
			return Shape{Kind: StaticMethodPair, Class: class, Name: method}, nil
		}
		if isObject(target) {
			return Shape{Kind: BoundMethodPair, Object: target, Name: method}, nil
		}
		return Shape{}, fmt.Errorf("%w: pair target of type %T", ErrInvalidCallableShape, target)
	}

	if isObject(value) {
		return Shape{Kind: InvokableObject, Object: value, Name: InvokeMethod}, nil
	}

	s, ok := value.(string)
	if !ok {
		return Shape{}, fmt.Errorf("%w: value of type %T", ErrInvalidCallableShape, value)
	}
	if s == "" {
		return Shape{}, fmt.Errorf("%w: empty string", ErrInvalidCallableShape)
	}

	if class, method, found := strings.Cut(s, MethodSeparator); found {
		if class == "" || method == "" {
			return Shape{}, fmt.Errorf("%w: %q", ErrInvalidCallableShape, s)
		}
		return Shape{Kind: StaticMethodString, Class: class, Name: method}, nil
	}

	return Shape{Kind: FreeFunction, Name: s}, nil
}

// asPair recognizes Pair, [2]any and two-element []any values whose second
// element is a string.
func asPair(value any) (target any, method string, ok bool) {
	switch v := value.(type) {
	case Pair:
		return v.Target, v.Method, true
	case *Pair:
		if v == nil {
			return nil, "", false
		}
		return v.Target, v.Method, true
	case [2]any:
		m, isString := v[1].(string)
		return v[0], m, isString
	case []any:
		if len(v) != 2 {
			return nil, "", false
		}
		m, isString := v[1].(string)
		return v[0], m, isString
	}
	return nil, "", false
}

// isObject reports whether v is an instance value: a struct, a non-nil
// pointer, or any named non-string type that carries methods.
func isObject(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Struct:
		return true
	case reflect.Pointer:
		return !rv.IsNil()
	case reflect.String, reflect.Slice, reflect.Array, reflect.Func, reflect.Invalid:
		return false
	}
	return rv.Type().NumMethod() > 0
}

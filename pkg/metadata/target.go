package metadata

import (
	"fmt"
	"reflect"

	"github.com/phobologic/docreflect/pkg/callable"
)

// funcTarget is a free function, closure or static method. class is the
// owning type of a static method.
type funcTarget struct {
	name   string
	owner  string
	class  reflect.Type
	fn     reflect.Value
	params []callable.Parameter
	doc    string
	hasDoc bool
}

func (t *funcTarget) Name() string { return t.name }
func (t *funcTarget) Owner() string { return t.owner }
func (t *funcTarget) Parameters() []callable.Parameter { return clone(t.params) }
func (t *funcTarget) IsStatic() bool { return true }

// AcceptsReceiver reports whether receiver is an instance of the owning
// class. Free functions and closures accept anything.
func (t *funcTarget) AcceptsReceiver(receiver any) bool {
	if t.class == nil {
		return true
	}
	if receiver == nil {
		return false
	}
	rt := reflect.TypeOf(receiver)
	switch {
	case rt.AssignableTo(t.class):
		return true
	case t.class.Kind() == reflect.Pointer && rt == t.class.Elem():
		return true
	case rt.Kind() == reflect.Pointer && rt.Elem() == t.class:
		return true
	}
	return false
}

func (t *funcTarget) DocComment() (string, bool) { return t.doc, t.hasDoc }

func (t *funcTarget) Invoke(_ any, args []any) (any, error) {
	in, spread, err := bind(t.fn.Type(), 0, args)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", t.name, err)
	}
	return call(t.fn, in, spread)
}

// methodTarget is an instance method of a Go type.
type methodTarget struct {
	owner  string
	typ    reflect.Type
	method reflect.Method
	params []callable.Parameter
	doc    string
	hasDoc bool
}

func (t *methodTarget) Name() string { return t.method.Name }
func (t *methodTarget) Owner() string { return t.owner }
func (t *methodTarget) Parameters() []callable.Parameter { return clone(t.params) }
func (t *methodTarget) IsStatic() bool { return false }

func (t *methodTarget) DocComment() (string, bool) { return t.doc, t.hasDoc }

// AcceptsReceiver reports whether receiver's type is the owning type, its
// pointer or value counterpart, or implements it.
func (t *methodTarget) AcceptsReceiver(receiver any) bool {
	if receiver == nil {
		return false
	}
	rt := reflect.TypeOf(receiver)
	switch {
	case rt == t.typ, rt.AssignableTo(t.typ):
		return true
	case t.typ.Kind() == reflect.Pointer && rt == t.typ.Elem():
		_, ok := rt.MethodByName(t.method.Name)
		return ok
	case rt.Kind() == reflect.Pointer && rt.Elem() == t.typ:
		return true
	}
	return false
}

// Invoke calls the method on receiver. A nil receiver calls the method
// expression with the zero value of the owning type.
func (t *methodTarget) Invoke(receiver any, args []any) (any, error) {
	if receiver != nil {
		if !t.AcceptsReceiver(receiver) {
			return nil, fmt.Errorf("%w: %T is not an instance of %s", callable.ErrReceiverTypeMismatch, receiver, t.owner)
		}
		m := reflect.ValueOf(receiver).MethodByName(t.method.Name)
		in, spread, err := bind(m.Type(), 0, args)
		if err != nil {
			return nil, fmt.Errorf("calling %s::%s: %w", t.owner, t.method.Name, err)
		}
		return call(m, in, spread)
	}

	if !t.method.Func.IsValid() {
		return nil, fmt.Errorf("%w: %s::%s needs a receiver", callable.ErrNotInvocable, t.owner, t.method.Name)
	}
	in, spread, err := bind(t.method.Func.Type(), 1, args)
	if err != nil {
		return nil, fmt.Errorf("calling %s::%s: %w", t.owner, t.method.Name, err)
	}
	in = append([]reflect.Value{reflect.Zero(t.typ)}, in...)
	return call(t.method.Func, in, spread)
}

func clone(params []callable.Parameter) []callable.Parameter {
	if params == nil {
		return nil
	}
	out := make([]callable.Parameter, len(params))
	copy(out, params)
	return out
}

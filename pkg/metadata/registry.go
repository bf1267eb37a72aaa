// Package metadata is a callable.Provider backed by Go reflection. Classes are
// Go types registered under a name; static methods and free functions are
// plain functions registered under a class or function name.
//
// Go reflection does not keep parameter names or default values, so they are
// attached with Describe (or passed at registration). Parameters that were
// never described are named arg0, arg1, ...
package metadata

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/phobologic/docreflect/pkg/callable"
)

// ErrInvalidRegistration is returned for registrations that cannot work,
// such as a non-function value or a duplicate name.
var ErrInvalidRegistration = errors.New("invalid registration")

// Registry holds named Go types and functions. Registration is safe for
// concurrent use; lookups only take a read lock.
type Registry struct {
	mu        sync.RWMutex
	classes   map[string]*classEntry
	byType    map[reflect.Type]*classEntry
	functions map[string]*funcEntry
	byPointer map[uintptr]*funcEntry
}

type classEntry struct {
	name    string
	typ     reflect.Type
	statics map[string]*funcEntry
	params  map[string][]callable.Parameter
	docs    map[string]string
}

type funcEntry struct {
	name   string
	owner  string
	class  reflect.Type
	fn     reflect.Value
	params []callable.Parameter
	doc    string
	hasDoc bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes:   make(map[string]*classEntry),
		byType:    make(map[reflect.Type]*classEntry),
		functions: make(map[string]*funcEntry),
		byPointer: make(map[uintptr]*funcEntry),
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}

// RegisterClass registers the type of sample under name. A struct value is
// registered through its pointer type so that pointer methods are visible.
// An interface is registered with a nil pointer to it, as in (*Reader)(nil).
func (r *Registry) RegisterClass(name string, sample any) error {
	if name == "" || sample == nil {
		return fmt.Errorf("%w: class needs a name and a sample value", ErrInvalidRegistration)
	}
	t := reflect.TypeOf(sample)
	switch {
	case t.Kind() == reflect.Struct:
		t = reflect.PointerTo(t)
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface:
		t = t.Elem()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.classes[key(name)]; exists {
		return fmt.Errorf("%w: class %q already registered", ErrInvalidRegistration, name)
	}
	e := &classEntry{
		name:    strings.TrimPrefix(name, `\`),
		typ:     t,
		statics: make(map[string]*funcEntry),
		params:  make(map[string][]callable.Parameter),
		docs:    make(map[string]string),
	}
	r.classes[key(name)] = e
	r.byType[t] = e
	if t.Kind() == reflect.Pointer {
		r.byType[t.Elem()] = e
	}
	return nil
}

// RegisterFunction registers a free function.
func (r *Registry) RegisterFunction(name string, fn any, params ...callable.Parameter) error {
	e, err := newFuncEntry(name, "", fn, params)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[key(name)]; exists {
		return fmt.Errorf("%w: function %q already registered", ErrInvalidRegistration, name)
	}
	r.functions[key(name)] = e
	r.byPointer[e.fn.Pointer()] = e
	return nil
}

// RegisterStatic registers fn as a static method of a registered class.
func (r *Registry) RegisterStatic(class, method string, fn any, params ...callable.Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.classes[key(class)]
	if !ok {
		return fmt.Errorf("%w: class %q is not registered", ErrInvalidRegistration, class)
	}
	e, err := newFuncEntry(method, c.name, fn, params)
	if err != nil {
		return err
	}
	if _, exists := c.statics[key(method)]; exists {
		return fmt.Errorf("%w: %s::%s already registered", ErrInvalidRegistration, c.name, method)
	}
	e.class = c.typ
	c.statics[key(method)] = e
	return nil
}

// Describe attaches parameter names and defaults to an instance method.
func (r *Registry) Describe(class, method string, params ...callable.Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.classes[key(class)]
	if !ok {
		return fmt.Errorf("%w: class %q is not registered", ErrInvalidRegistration, class)
	}
	if s, ok := c.statics[key(method)]; ok {
		s.params = params
		return nil
	}
	if _, ok := c.typ.MethodByName(method); !ok {
		return fmt.Errorf("%w: %s has no method %s", ErrInvalidRegistration, c.name, method)
	}
	c.params[method] = params
	return nil
}

// SetDoc attaches a raw doc comment. With an empty class, member names a
// function; with an empty member the comment belongs to the class itself.
func (r *Registry) SetDoc(class, member, comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if class == "" {
		f, ok := r.functions[key(member)]
		if !ok {
			return fmt.Errorf("%w: function %q is not registered", ErrInvalidRegistration, member)
		}
		f.doc, f.hasDoc = comment, true
		return nil
	}

	c, ok := r.classes[key(class)]
	if !ok {
		return fmt.Errorf("%w: class %q is not registered", ErrInvalidRegistration, class)
	}
	if s, ok := c.statics[key(member)]; ok {
		s.doc, s.hasDoc = comment, true
		return nil
	}
	c.docs[member] = comment
	return nil
}

// DocComment returns the raw doc comment of a class, member or function.
func (r *Registry) DocComment(class, member string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if class == "" {
		f, ok := r.functions[key(member)]
		if !ok || !f.hasDoc {
			return "", false
		}
		return f.doc, true
	}
	c, ok := r.classes[key(class)]
	if !ok {
		return "", false
	}
	if s, ok := c.statics[key(member)]; ok {
		return s.doc, s.hasDoc
	}
	doc, ok := c.docs[member]
	return doc, ok
}

// ClassOf returns the registered class name of an instance.
func (r *Registry) ClassOf(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byType[reflect.TypeOf(v)]
	if !ok {
		return "", false
	}
	return c.name, true
}

// HasClass reports whether name is registered.
func (r *Registry) HasClass(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.classes[key(name)]
	return ok
}

// ResolveFunction implements callable.Provider.
func (r *Registry) ResolveFunction(name string) (callable.Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.functions[key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: function %s", callable.ErrUnknownMethod, name)
	}
	return f.target(), nil
}

// ResolveClosure implements callable.Provider. Functions that were also
// registered by name keep their described parameters and doc comment.
func (r *Registry) ResolveClosure(fn any) (callable.Target, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a function", callable.ErrUnknownMethod, fn)
	}

	r.mu.RLock()
	e, ok := r.byPointer[v.Pointer()]
	r.mu.RUnlock()
	if ok && e.fn.Type() == v.Type() {
		t := e.target()
		t.fn = v
		return t, nil
	}

	name := "{closure}"
	if rf := runtime.FuncForPC(v.Pointer()); rf != nil {
		name = rf.Name()
	}
	return &funcTarget{name: name, fn: v, params: defaultParams(v.Type(), 0)}, nil
}

// ResolveMethod implements callable.Provider. owner is a class name or an
// instance.
func (r *Registry) ResolveMethod(owner any, method string) (callable.Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if class, ok := owner.(string); ok {
		c, ok := r.classes[key(class)]
		if !ok {
			return nil, fmt.Errorf("%w: class %s", callable.ErrUnknownMethod, class)
		}
		if s, ok := c.statics[key(method)]; ok {
			return s.target(), nil
		}
		return c.method(c.typ, method)
	}

	if owner == nil {
		return nil, fmt.Errorf("%w: nil owner", callable.ErrUnknownMethod)
	}
	t := reflect.TypeOf(owner)
	if c, ok := r.byType[t]; ok {
		return c.method(t, method)
	}
	anon := &classEntry{name: t.String(), typ: t}
	return anon.method(t, method)
}

func (c *classEntry) method(t reflect.Type, name string) (callable.Target, error) {
	m, ok := t.MethodByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s::%s", callable.ErrUnknownMethod, c.name, name)
	}
	params, ok := c.params[name]
	if !ok {
		params = defaultParams(m.Type, 1)
		if t.Kind() == reflect.Interface {
			params = defaultParams(m.Type, 0)
		}
	}
	doc, hasDoc := c.docs[name]
	return &methodTarget{
		owner:  c.name,
		typ:    t,
		method: m,
		params: params,
		doc:    doc,
		hasDoc: hasDoc,
	}, nil
}

func newFuncEntry(name, owner string, fn any, params []callable.Parameter) (*funcEntry, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: function needs a name", ErrInvalidRegistration)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %s must be a function, got %T", ErrInvalidRegistration, name, fn)
	}
	if params == nil {
		params = defaultParams(v.Type(), 0)
	}
	return &funcEntry{name: name, owner: owner, fn: v, params: params}, nil
}

func (e *funcEntry) target() *funcTarget {
	return &funcTarget{
		name:   e.name,
		owner:  e.owner,
		class:  e.class,
		fn:     e.fn,
		params: e.params,
		doc:    e.doc,
		hasDoc: e.hasDoc,
	}
}

// defaultParams names the inputs of ft starting at offset arg0, arg1, ...
func defaultParams(ft reflect.Type, offset int) []callable.Parameter {
	n := ft.NumIn() - offset
	if n <= 0 {
		return nil
	}
	params := make([]callable.Parameter, n)
	for i := range params {
		params[i] = callable.Parameter{Name: fmt.Sprintf("arg%d", i)}
	}
	return params
}

// Package reflector is a caching view over extracted class metadata. It
// answers the questions PHP's reflection API answers for a class: its
// properties, method parameters, traits, interfaces and doc comments.
package reflector

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/phobologic/docreflect/pkg/callable"
	"github.com/phobologic/docreflect/pkg/doccomment"

	"github.com/phobologic/docreflect/internal/model"
)

// ConstructorName is the method Parameters looks up when no method is given.
const ConstructorName = "__construct"

// ErrUnknownClass is returned for names the source does not declare.
var ErrUnknownClass = errors.New("unknown class")

// Source looks up declared classes by fully qualified name. Lookups are
// case-insensitive and ignore a leading backslash.
type Source interface {
	LookupClass(name string) (*model.ClassInfo, bool)
}

// Reflector memoizes per-class answers. It is safe for concurrent use.
type Reflector struct {
	src Source

	mu         sync.RWMutex
	props      map[string][]model.Property
	params     map[string]map[string][]model.Parameter
	traits     map[string][]string
	interfaces map[string][]string
	implements map[string][]string
}

// New returns a Reflector over src.
func New(src Source) *Reflector {
	return &Reflector{
		src:        src,
		props:      make(map[string][]model.Property),
		params:     make(map[string]map[string][]model.Parameter),
		traits:     make(map[string][]string),
		interfaces: make(map[string][]string),
		implements: make(map[string][]string),
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}

// Class returns the declaration of name.
func (r *Reflector) Class(name string) (*model.ClassInfo, error) {
	c, ok := r.src.LookupClass(strings.TrimPrefix(name, `\`))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	return c, nil
}

// Properties returns the properties of name: its own, those of the traits it
// uses, and the non-private properties of its ancestors. A name declared
// closer to the class hides the same name further up.
func (r *Reflector) Properties(name string) ([]model.Property, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, err
	}
	k := key(c.FQN())

	r.mu.RLock()
	cached, ok := r.props[k]
	r.mu.RUnlock()
	if ok {
		return clone(cached), nil
	}

	seen := make(map[string]struct{})
	var props []model.Property
	add := func(ps []model.Property, inherited bool) {
		for _, p := range ps {
			if inherited && p.Visibility == "private" {
				continue
			}
			if _, dup := seen[p.Name]; dup {
				continue
			}
			seen[p.Name] = struct{}{}
			props = append(props, p)
		}
	}

	for i, cls := range r.lineage(c) {
		inherited := i > 0
		add(cls.Properties, inherited)
		for _, t := range r.traitClosure(cls) {
			if tc, ok := r.src.LookupClass(t); ok {
				add(tc.Properties, inherited)
			}
		}
	}

	r.mu.Lock()
	r.props[k] = props
	r.mu.Unlock()
	return clone(props), nil
}

// Method finds method on name, its traits or its ancestors, and returns it
// with the class that declares it. A trait method counts as declared by the
// class that uses the trait.
func (r *Reflector) Method(name, method string) (*model.Method, *model.ClassInfo, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, nil, err
	}
	for _, cls := range r.lineage(c) {
		if m, ok := cls.Method(method); ok {
			return m, cls, nil
		}
		for _, t := range r.traitClosure(cls) {
			tc, ok := r.src.LookupClass(t)
			if !ok {
				continue
			}
			if m, ok := tc.Method(method); ok {
				return m, cls, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: %s::%s", callable.ErrUnknownMethod, c.FQN(), method)
}

// Parameters returns the declared parameters of method on name. An empty
// method means the constructor; a class without one has no parameters.
func (r *Reflector) Parameters(name, method string) ([]model.Parameter, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, err
	}
	ctor := method == ""
	if ctor {
		method = ConstructorName
	}
	k, mk := key(c.FQN()), strings.ToLower(method)

	r.mu.RLock()
	cached, ok := r.params[k][mk]
	r.mu.RUnlock()
	if ok {
		return clone(cached), nil
	}

	var params []model.Parameter
	m, _, err := r.Method(c.FQN(), method)
	switch {
	case err == nil:
		params = m.Params
	case ctor && errors.Is(err, callable.ErrUnknownMethod):
		params = []model.Parameter{}
	default:
		return nil, err
	}

	r.mu.Lock()
	if r.params[k] == nil {
		r.params[k] = make(map[string][]model.Parameter)
	}
	r.params[k][mk] = params
	r.mu.Unlock()
	return clone(params), nil
}

// Traits returns every trait name uses, directly or through other traits, in
// discovery order. Traits of parent classes are not included.
func (r *Reflector) Traits(name string) ([]string, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, err
	}
	return clone(r.traitClosure(c)), nil
}

func (r *Reflector) traitClosure(c *model.ClassInfo) []string {
	k := key(c.FQN())
	r.mu.RLock()
	cached, ok := r.traits[k]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	seen := make(map[string]struct{})
	traits := []string{}
	pending := append([]string(nil), c.Traits...)
	for len(pending) > 0 {
		var next []string
		for _, t := range pending {
			if _, dup := seen[key(t)]; dup {
				continue
			}
			seen[key(t)] = struct{}{}
			traits = append(traits, t)
			if tc, ok := r.src.LookupClass(t); ok {
				next = append(next, tc.Traits...)
			}
		}
		pending = next
	}

	r.mu.Lock()
	r.traits[k] = traits
	r.mu.Unlock()
	return traits
}

// Interfaces returns every interface name implements, including those of its
// ancestors and those extended by other interfaces.
func (r *Reflector) Interfaces(name string) ([]string, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, err
	}
	return clone(r.interfaceClosure(c)), nil
}

func (r *Reflector) interfaceClosure(c *model.ClassInfo) []string {
	k := key(c.FQN())
	r.mu.RLock()
	cached, ok := r.interfaces[k]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	seen := make(map[string]struct{})
	out := []string{}
	var visit func(names []string)
	visit = func(names []string) {
		for _, n := range names {
			if _, dup := seen[key(n)]; dup {
				continue
			}
			seen[key(n)] = struct{}{}
			out = append(out, n)
			if ic, ok := r.src.LookupClass(n); ok {
				visit(ic.Interfaces)
			}
		}
	}
	for _, cls := range r.lineage(c) {
		visit(cls.Interfaces)
	}

	r.mu.Lock()
	r.interfaces[k] = out
	r.mu.Unlock()
	return out
}

// Implements returns the interfaces name implements that its parent does not.
func (r *Reflector) Implements(name string) ([]string, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, err
	}
	k := key(c.FQN())

	r.mu.RLock()
	cached, ok := r.implements[k]
	r.mu.RUnlock()
	if ok {
		return clone(cached), nil
	}

	all := r.interfaceClosure(c)
	inherited := make(map[string]struct{})
	if c.Parent != "" {
		if pc, ok := r.src.LookupClass(c.Parent); ok {
			for _, n := range r.interfaceClosure(pc) {
				inherited[key(n)] = struct{}{}
			}
		}
	}
	out := []string{}
	for _, n := range all {
		if _, ok := inherited[key(n)]; !ok {
			out = append(out, n)
		}
	}

	r.mu.Lock()
	r.implements[k] = out
	r.mu.Unlock()
	return clone(out), nil
}

// Parents returns the ancestors of name, nearest first. An ancestor the
// source does not declare ends the chain.
func (r *Reflector) Parents(name string) ([]string, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, err
	}
	lineage := r.lineage(c)
	parents := make([]string, 0, len(lineage))
	for _, cls := range lineage[1:] {
		parents = append(parents, cls.FQN())
	}
	if last := lineage[len(lineage)-1]; last.Parent != "" {
		if _, ok := r.src.LookupClass(last.Parent); !ok {
			parents = append(parents, last.Parent)
		}
	}
	return parents, nil
}

// IsSubclassOf reports whether name is ancestor, extends it or implements it.
func (r *Reflector) IsSubclassOf(name, ancestor string) bool {
	if key(name) == key(ancestor) {
		return true
	}
	parents, err := r.Parents(name)
	if err != nil {
		return false
	}
	for _, p := range parents {
		if key(p) == key(ancestor) {
			return true
		}
	}
	ifaces, _ := r.Interfaces(name)
	for _, i := range ifaces {
		if key(i) == key(ancestor) {
			return true
		}
	}
	return false
}

// Doc returns the parsed doc comment of a class or one of its members. An
// empty member means the class itself; a member starting with $ is a
// property; otherwise methods are tried, then constants, then properties.
// A member without a doc comment yields an empty comment.
func (r *Reflector) Doc(name, member string) (*doccomment.Comment, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, err
	}
	if member == "" {
		return doccomment.Parse(c.Doc), nil
	}

	if !strings.HasPrefix(member, "$") {
		if m, _, err := r.Method(c.FQN(), member); err == nil {
			return doccomment.Parse(m.Doc), nil
		}
		if k, ok := c.Constant(member); ok {
			return doccomment.Parse(k.Doc), nil
		}
	}
	props, err := r.Properties(c.FQN())
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		if p.Name == strings.TrimPrefix(member, "$") {
			return doccomment.Parse(p.Doc), nil
		}
	}
	return nil, fmt.Errorf("%w: %s::%s", callable.ErrUnknownMethod, c.FQN(), member)
}

// lineage returns c followed by its declared ancestors, stopping at the first
// undeclared parent or a cycle.
func (r *Reflector) lineage(c *model.ClassInfo) []*model.ClassInfo {
	out := []*model.ClassInfo{c}
	seen := map[string]struct{}{key(c.FQN()): {}}
	for cur := c; cur.Parent != ""; {
		p, ok := r.src.LookupClass(cur.Parent)
		if !ok {
			break
		}
		if _, dup := seen[key(p.FQN())]; dup {
			break
		}
		seen[key(p.FQN())] = struct{}{}
		out = append(out, p)
		cur = p
	}
	return out
}

func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

package index

import (
	"fmt"
	"strings"

	"github.com/phobologic/docreflect/pkg/callable"

	"github.com/phobologic/docreflect/internal/model"
)

// invokeMethod is the PHP magic method behind callable.InvokeMethod.
const invokeMethod = "__invoke"

// Instance stands in for an object of an indexed class. Sources cannot be
// executed, so an instance only carries its class name.
type Instance struct {
	Class string
}

func (i Instance) String() string {
	return "object(" + i.Class + ")"
}

// ResolveFunction implements callable.Provider.
func (ix *Index) ResolveFunction(name string) (callable.Target, error) {
	f, ok := ix.LookupFunction(name)
	if !ok {
		return nil, fmt.Errorf("%w: function %s", callable.ErrUnknownMethod, name)
	}
	return &sourceTarget{
		ix:     ix,
		name:   f.FQN(),
		params: parameters(f.Params),
		static: true,
		doc:    f.Doc,
	}, nil
}

// ResolveMethod implements callable.Provider. owner is a class name or an
// Instance.
func (ix *Index) ResolveMethod(owner any, method string) (callable.Target, error) {
	var class string
	switch o := owner.(type) {
	case string:
		class = o
	case Instance:
		class = o.Class
	case *Instance:
		if o == nil {
			return nil, fmt.Errorf("%w: nil instance", callable.ErrUnknownMethod)
		}
		class = o.Class
	default:
		return nil, fmt.Errorf("%w: %T is not an indexed class", callable.ErrUnknownMethod, owner)
	}

	if method == callable.InvokeMethod {
		method = invokeMethod
	}
	m, declaring, err := ix.refl.Method(class, method)
	if err != nil {
		return nil, fmt.Errorf("%w: %s::%s", callable.ErrUnknownMethod, class, method)
	}
	return &sourceTarget{
		ix:     ix,
		name:   m.Name,
		owner:  declaring.FQN(),
		params: parameters(m.Params),
		static: m.Static,
		doc:    m.Doc,
	}, nil
}

// ResolveClosure implements callable.Provider. Source indexes hold no
// closures.
func (ix *Index) ResolveClosure(fn any) (callable.Target, error) {
	return nil, fmt.Errorf("%w: closures are not indexed", callable.ErrUnknownMethod)
}

// sourceTarget describes a function or method declared in source.
type sourceTarget struct {
	ix     *Index
	name   string
	owner  string
	params []callable.Parameter
	static bool
	doc    string
}

func (t *sourceTarget) Name() string { return t.name }
func (t *sourceTarget) Owner() string { return t.owner }
func (t *sourceTarget) IsStatic() bool { return t.static }

func (t *sourceTarget) Parameters() []callable.Parameter {
	out := make([]callable.Parameter, len(t.params))
	copy(out, t.params)
	return out
}

func (t *sourceTarget) DocComment() (string, bool) {
	return t.doc, t.doc != ""
}

// AcceptsReceiver reports whether receiver is an Instance of the owning class
// or one of its descendants.
func (t *sourceTarget) AcceptsReceiver(receiver any) bool {
	if t.owner == "" {
		return true
	}
	var class string
	switch r := receiver.(type) {
	case Instance:
		class = r.Class
	case *Instance:
		if r == nil {
			return false
		}
		class = r.Class
	default:
		return false
	}
	return t.ix.refl.IsSubclassOf(class, t.owner)
}

func (t *sourceTarget) Invoke(any, []any) (any, error) {
	name := t.name
	if t.owner != "" {
		name = t.owner + "::" + t.name
	}
	return nil, fmt.Errorf("%w: %s is declared in source only", callable.ErrNotInvocable, name)
}

// parameters converts declared parameters. Defaults stay source text; a
// variadic parameter defaults to an empty list.
func parameters(ps []model.Parameter) []callable.Parameter {
	out := make([]callable.Parameter, len(ps))
	for i, p := range ps {
		cp := callable.Parameter{Name: p.Name, HasDefault: p.HasDefault}
		if p.HasDefault {
			cp.Default = p.Default
		}
		if p.Variadic {
			cp.HasDefault, cp.Default = true, []any{}
		}
		out[i] = cp
	}
	return out
}

// ParseExpr turns a callable expression as written on a command line into a
// value callable.New accepts:
//
//	name             free function
//	Class::method    static method string
//	Class->method    method bound to an instance of Class
//	new Class        invokable instance of Class
func ParseExpr(expr string) any {
	expr = strings.TrimSpace(expr)
	if rest, ok := strings.CutPrefix(expr, "new "); ok {
		return Instance{Class: strings.TrimSpace(rest)}
	}
	if class, method, ok := strings.Cut(expr, "->"); ok {
		return callable.Pair{Target: Instance{Class: class}, Method: method}
	}
	return expr
}

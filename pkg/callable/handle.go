package callable

import (
	"fmt"

	"github.com/phobologic/docreflect/pkg/doccomment"
)

// Handle is a classified callable bound to the metadata needed to invoke it.
// It is immutable after New returns.
type Handle struct {
	kind     Kind
	value    any
	shape    Shape
	receiver any
	target   Target
}

// Option configures New.
type Option func(*options)

type options struct {
	diagnostics DiagnosticFunc
}

// WithDiagnostics routes diagnostics to fn instead of the logger.
func WithDiagnostics(fn DiagnosticFunc) Option {
	return func(o *options) {
		o.diagnostics = fn
	}
}

// New classifies value and resolves its target through p.
func New(value any, p Provider, opts ...Option) (*Handle, error) {
	o := options{diagnostics: logDiagnostic}
	for _, opt := range opts {
		opt(&o)
	}

	shape, err := Classify(value)
	if err != nil {
		return nil, err
	}

	h := &Handle{kind: shape.Kind, value: value, shape: shape}

	switch shape.Kind {
	case Closure:
		h.target, err = p.ResolveClosure(value)
	case FreeFunction:
		h.target, err = p.ResolveFunction(shape.Name)
	case InvokableObject, BoundMethodPair:
		h.target, err = p.ResolveMethod(shape.Object, shape.Name)
		h.receiver = shape.Object
	case StaticMethodString, StaticMethodPair:
		h.target, err = p.ResolveMethod(shape.Class, shape.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", describe(shape), err)
	}

	if shape.Kind.IsStaticForm() && !h.target.IsStatic() {
		o.diagnostics(Diagnostic{
			Kind:     DeprecatedStaticInstanceCall,
			Callable: describe(shape),
			Message:  fmt.Sprintf("non-static method %s should not be called statically", describe(shape)),
		})
	}

	return h, nil
}

// Kind returns how the callable was written.
func (h *Handle) Kind() Kind { return h.kind }

// Value returns the value New was called with.
func (h *Handle) Value() any { return h.value }

// Shape returns the classification result.
func (h *Handle) Shape() Shape { return h.shape }

// Target returns the resolved metadata handle.
func (h *Handle) Target() Target { return h.target }

// Receiver returns the bound instance, or nil for static and free kinds.
func (h *Handle) Receiver() any { return h.receiver }

// String returns a readable form of the callable.
func (h *Handle) String() string { return describe(h.shape) }

// Doc returns the target's parsed doc comment when the provider knows it.
func (h *Handle) Doc() (*doccomment.Comment, bool) {
	d, ok := h.target.(Documented)
	if !ok {
		return nil, false
	}
	raw, ok := d.DocComment()
	if !ok {
		return nil, false
	}
	return doccomment.Parse(raw), true
}

// Invoke calls the target with positional arguments, using the bound
// receiver when there is one. Errors returned by the target are passed
// through unchanged.
func (h *Handle) Invoke(args ...any) (any, error) {
	return h.target.Invoke(h.receiver, args)
}

// InvokeWithReceiver calls the target on receiver. A nil receiver falls back
// to the bound one. Method targets reject a receiver of another class, even
// static ones, which are then called without it. Free functions and closures
// ignore the receiver.
func (h *Handle) InvokeWithReceiver(receiver any, args []any) (any, error) {
	if h.kind == Closure || h.kind == FreeFunction {
		return h.target.Invoke(nil, args)
	}
	if receiver == nil {
		receiver = h.receiver
	}
	if receiver != nil && !h.target.AcceptsReceiver(receiver) {
		return nil, fmt.Errorf("%w: %T is not an instance of %s", ErrReceiverTypeMismatch, receiver, h.target.Owner())
	}
	if h.target.IsStatic() {
		return h.target.Invoke(nil, args)
	}
	return h.target.Invoke(receiver, args)
}

// InvokeMapped builds positional arguments from named values. Each declared
// parameter takes the named value if present, else its declared default,
// else fallback. Missing names never fail.
func (h *Handle) InvokeMapped(receiver any, named map[string]any, fallback any) (any, error) {
	return h.InvokeWithReceiver(receiver, h.MapArguments(named, fallback))
}

// MapArguments returns the positional arguments InvokeMapped would use.
func (h *Handle) MapArguments(named map[string]any, fallback any) []any {
	params := h.target.Parameters()
	args := make([]any, 0, len(params))
	for _, p := range params {
		if v, ok := named[p.Name]; ok {
			args = append(args, v)
			continue
		}
		if p.HasDefault {
			args = append(args, p.Default)
			continue
		}
		args = append(args, fallback)
	}
	return args
}

func describe(s Shape) string {
	switch s.Kind {
	case Closure:
		return "{closure}"
	case FreeFunction:
		return s.Name
	case StaticMethodString:
		return s.Class + MethodSeparator + s.Name
	case StaticMethodPair:
		return "[" + s.Class + ", " + s.Name + "]"
	case BoundMethodPair, InvokableObject:
		return fmt.Sprintf("[%T, %s]", s.Object, s.Name)
	}
	return "{unknown}"
}

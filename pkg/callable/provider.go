package callable

// InvokeMethod is the method an invokable object is called through.
const InvokeMethod = "Invoke"

// Parameter describes one declared parameter of a target.
type Parameter struct {
	Name       string
	HasDefault bool
	Default    any
}

// Target is a resolved function or method as described by a Provider.
type Target interface {
	// Name is the function or method name.
	Name() string
	// Owner is the declaring class, or "" for functions and closures.
	Owner() string
	// Parameters lists the declared parameters in order.
	Parameters() []Parameter
	// IsStatic reports whether the target can run without a receiver.
	IsStatic() bool
	// AcceptsReceiver reports whether receiver is an instance of Owner.
	AcceptsReceiver(receiver any) bool
	// Invoke runs the target. receiver is nil for static targets.
	Invoke(receiver any, args []any) (any, error)
}

// Documented is implemented by targets that know their doc comment.
type Documented interface {
	DocComment() (string, bool)
}

// Provider resolves names and values into Targets.
type Provider interface {
	// ResolveFunction resolves a free function by name.
	ResolveFunction(name string) (Target, error)
	// ResolveMethod resolves a method of a class, given either the class
	// name or an instance.
	ResolveMethod(owner any, method string) (Target, error)
	// ResolveClosure describes a function value.
	ResolveClosure(fn any) (Target, error)
}

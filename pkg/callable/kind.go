// Package callable normalizes the different shapes a callable value can take
// (closures, invokable objects, function names, method strings and pairs) into
// a single Handle that can be inspected and invoked.
package callable

// Kind identifies how a callable value was written.
type Kind int

const (
	// InvokableObject is an object whose Invoke method is the target.
	InvokableObject Kind = iota
	// Closure is a function value.
	Closure
	// FreeFunction is a function referenced by name.
	FreeFunction
	// StaticMethodString is a "Class::method" string.
	StaticMethodString
	// BoundMethodPair is an (instance, method name) pair.
	BoundMethodPair
	// StaticMethodPair is a (class name, method name) pair.
	StaticMethodPair
)

var kindNames = [...]string{
	InvokableObject:    "invokable_object",
	Closure:            "closure",
	FreeFunction:       "free_function",
	StaticMethodString: "static_method_string",
	BoundMethodPair:    "bound_method_pair",
	StaticMethodPair:   "static_method_pair",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// NeedsReceiver reports whether handles of this kind carry a bound receiver.
func (k Kind) NeedsReceiver() bool {
	return k == InvokableObject || k == BoundMethodPair
}

// IsStaticForm reports whether the kind names a method without an instance.
func (k Kind) IsStaticForm() bool {
	return k == StaticMethodString || k == StaticMethodPair
}

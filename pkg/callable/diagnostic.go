package callable

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// DiagnosticKind classifies non-fatal findings raised while building a Handle.
type DiagnosticKind string

// DeprecatedStaticInstanceCall is raised when a static callable form names an
// instance method. The call still goes ahead with a nil receiver.
const DeprecatedStaticInstanceCall DiagnosticKind = "deprecated_static_instance_call"

// Diagnostic is a structured warning.
type Diagnostic struct {
	Kind     DiagnosticKind
	Callable string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// DiagnosticFunc receives diagnostics as they are raised.
type DiagnosticFunc func(Diagnostic)

// logDiagnostic is the default sink.
func logDiagnostic(d Diagnostic) {
	log.Warn().
		Str("kind", string(d.Kind)).
		Str("callable", d.Callable).
		Msg(d.Message)
}

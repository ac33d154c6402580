package perfcore

import "fmt"

// Kind discriminates the error categories the core can raise. Each kind
// maps to a stable CLI exit code via ExitCode.
type Kind int

const (
	// ArgError is raised by the CLI for bad or missing arguments.
	ArgError Kind = iota
	// IoError is raised by loaders for unreadable files.
	IoError
	// DecodeError is raised by loaders for malformed input.
	DecodeError
	// SchemaError is raised by the graph loader for an edge whose
	// endpoint lies outside 0..total_nodes-1. Unknown labels and a
	// missing total_nodes are only logged, not raised. Callers may
	// choose to continue past a SchemaError; the CLI does not.
	SchemaError
	// NumericError is raised by the matrix builder and analyzer for
	// values that cannot be reconciled into a valid stochastic matrix
	// (T(i) > 1) or that diverge during iteration (NaN).
	NumericError
)

func (k Kind) String() string {
	switch k {
	case ArgError:
		return "ArgError"
	case IoError:
		return "IoError"
	case DecodeError:
		return "DecodeError"
	case SchemaError:
		return "SchemaError"
	case NumericError:
		return "NumericError"
	default:
		return "UnknownError"
	}
}

// ExitCode returns the process exit code associated with the error kind,
// per the CLI contract: 1 for argument errors, 2 for I/O and decode
// errors, 3 for numeric failures. SchemaError has no dedicated exit code
// and maps to 1, like any kind not listed here.
func (k Kind) ExitCode() int {
	switch k {
	case ArgError:
		return 1
	case IoError, DecodeError:
		return 2
	case NumericError:
		return 3
	default:
		return 1
	}
}

// Error wraps a core failure with its Kind and an optional underlying
// cause, so callers can both pattern-match on Kind and unwrap to the
// original error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap enables errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Newf constructs an *Error of the given kind with a formatted message
// and no wrapped cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind around an existing error.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Package errs defines the taxonomy of errors the compiler and the
// execution shell produce. Each failure carries a Kind so callers can
// discriminate with errors.As instead of matching on message text,
// comparing on structured fields rather than strings.
package errs

import "fmt"

// Kind classifies why a compile or execution step failed.
type Kind int8

const (
	// SourceUnavailable means the lambda-chain source string could not
	// be read or was empty.
	SourceUnavailable Kind = iota + 1
	// ParseFailed means the JavaScript-like source did not parse as a
	// valid arrow-function chain.
	ParseFailed
	// UnknownOperator means a method name in the chain has no
	// recognized operation mapping.
	UnknownOperator
	// WrongArity means an operation was called with the wrong number
	// of lambda/value arguments.
	WrongArity
	// UnboundIdentifier means an expression referenced a name that is
	// not in scope (not a row parameter, query parameter, or grouping
	// key).
	UnboundIdentifier
	// ProjectionTooComplex means a select body used an expression form
	// the target dialect cannot project directly.
	ProjectionTooComplex
	// JoinShapeError means a join's key selectors or result selector
	// did not match the expected arity or parameter binding.
	JoinShapeError
	// MissingWhereGuard means a mutating operation (update/delete) was
	// compiled without a preceding where clause.
	MissingWhereGuard
	// RuntimeUnsupported means the generated SQL is well-formed but the
	// target dialect's executor cannot run it (e.g. SQLite RETURNING).
	RuntimeUnsupported
	// NoElement means a single-row terminal (first/single) found no
	// matching row and had no default.
	NoElement
	// MultipleElements means a single-row terminal (single) matched
	// more than one row.
	MultipleElements
	// GuardRejected means the execution shell's runtime SQL guard
	// refused to run a statement shape the compiler never produces
	// (e.g. DROP/TRUNCATE) but that reached the executor anyway.
	GuardRejected
)

// String renders the Kind's name for error messages and logs.
func (k Kind) String() string {
	switch k {
	case SourceUnavailable:
		return "SourceUnavailable"
	case ParseFailed:
		return "ParseFailed"
	case UnknownOperator:
		return "UnknownOperator"
	case WrongArity:
		return "WrongArity"
	case UnboundIdentifier:
		return "UnboundIdentifier"
	case ProjectionTooComplex:
		return "ProjectionTooComplex"
	case JoinShapeError:
		return "JoinShapeError"
	case MissingWhereGuard:
		return "MissingWhereGuard"
	case RuntimeUnsupported:
		return "RuntimeUnsupported"
	case NoElement:
		return "NoElement"
	case MultipleElements:
		return "MultipleElements"
	case GuardRejected:
		return "GuardRejected"
	default:
		return "Unknown"
	}
}

// CompileError is the error type returned by every compiler and
// executor stage. Op names the stage that raised it (e.g. "chain",
// "convert", "sqlgen", "exec.sqlite") and Context carries optional
// structured detail for logging.
type CompileError struct {
	Kind    Kind
	Op      string
	Message string
	Context map[string]any
	Err     error
}

func (e *CompileError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("%s [%s]: %s (context: %+v)", e.Kind, e.Op, e.Message, e.Context)
	}

	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Op, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// New builds a CompileError with no wrapped cause.
func New(kind Kind, op, message string) *CompileError {
	return &CompileError{Kind: kind, Op: op, Message: message}
}

// Newf builds a CompileError with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a CompileError around an underlying cause.
func Wrap(kind Kind, op string, err error) *CompileError {
	return &CompileError{Kind: kind, Op: op, Message: err.Error(), Err: err}
}

// WithContext attaches structured detail and returns the same error
// for chaining at the call site.
func (e *CompileError) WithContext(ctx map[string]any) *CompileError {
	e.Context = ctx
	return e
}

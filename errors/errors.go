package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the call pipeline the error occurred
type Phase string

const (
	PhaseParse   Phase = "parse"   // call expression text
	PhaseResolve Phase = "resolve" // call against signature
	PhaseDecode  Phase = "decode"  // literal text to typed value
	PhaseInvoke  Phase = "invoke"  // ABI call
	PhaseLower   Phase = "lower"   // value to linear memory
	PhaseLift    Phase = "lift"    // linear memory to value
	PhaseLoad    Phase = "load"    // component loading
	PhaseConfig  Phase = "config"  // manifest
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax            Kind = "syntax"
	KindArity             Kind = "arity"
	KindOverflow          Kind = "overflow"
	KindUnknownCase       Kind = "unknown_case"
	KindMalformed         Kind = "malformed"
	KindHostFailure       Kind = "host_failure"
	KindProtocolViolation Kind = "protocol_violation"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindUnsupported       Kind = "unsupported"
	KindInvalidData       Kind = "invalid_data"
	KindOutOfBounds       Kind = "out_of_bounds"
)

// Sentinels for errors.Is. Matching compares Phase and Kind only.
var (
	ErrSyntax            = &Error{Phase: PhaseParse, Kind: KindSyntax}
	ErrArity             = &Error{Phase: PhaseResolve, Kind: KindArity}
	ErrOverflow          = &Error{Phase: PhaseDecode, Kind: KindOverflow}
	ErrUnknownCase       = &Error{Phase: PhaseDecode, Kind: KindUnknownCase}
	ErrMalformed         = &Error{Phase: PhaseDecode, Kind: KindMalformed}
	ErrHostFailure       = &Error{Phase: PhaseInvoke, Kind: KindHostFailure}
	ErrProtocolViolation = &Error{Phase: PhaseInvoke, Kind: KindProtocolViolation}
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
	// Offset is the byte offset into the source text, or -1.
	Offset int
}

// ArityError is carried in Error.Value for KindArity errors.
type ArityError struct {
	Expected int
	Actual   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(joinPath(e.Path))
	}
	// offsets refer to call text or WIT source
	if e.Offset >= 0 && (e.Phase == PhaseParse || e.Phase == PhaseLoad) {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// joinPath joins path segments, keeping index segments attached: a.b[2].c
func joinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Arity returns the expected/actual counts of an arity error.
func (e *Error) Arity() (ArityError, bool) {
	a, ok := e.Value.(ArityError)
	return a, ok
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the value type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Offset sets the source offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the bridge taxonomy

// Syntax creates a syntax error at a source offset
func Syntax(offset int, detail string, args ...any) *Error {
	return New(PhaseParse, KindSyntax).Offset(offset).Detail(detail, args...).Build()
}

// Arity creates an argument count mismatch error
func Arity(name string, expected, actual int) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindArity,
		Detail: fmt.Sprintf("%s expects %d argument(s), got %d", name, expected, actual),
		Value:  ArityError{Expected: expected, Actual: actual},
		Offset: -1,
	}
}

// Overflow creates an overflow error
func Overflow(path []string, literal string, targetType string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindOverflow,
		Path:   path,
		Type:   targetType,
		Detail: fmt.Sprintf("value %s overflows %s", literal, targetType),
		Value:  literal,
		Offset: -1,
	}
}

// UnknownCase creates an error for an undeclared variant, enum or flags name
func UnknownCase(path []string, name string, targetType string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownCase,
		Path:   path,
		Type:   targetType,
		Detail: fmt.Sprintf("unknown case %q", name),
		Value:  name,
		Offset: -1,
	}
}

// Malformed creates an error for a literal that does not fit its type
func Malformed(path []string, targetType string, detail string, args ...any) *Error {
	return New(PhaseDecode, KindMalformed).Path(path...).Type(targetType).Detail(detail, args...).Build()
}

// HostFailure wraps an ABI-level failure
func HostFailure(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindHostFailure,
		Detail: fmt.Sprintf("call %s", name),
		Cause:  cause,
		Offset: -1,
	}
}

// ProtocolViolation creates an error for a host that broke the result contract
func ProtocolViolation(name string, detail string, args ...any) *Error {
	return New(PhaseInvoke, KindProtocolViolation).Detail(name+": "+detail, args...).Build()
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Offset: -1,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Offset: -1,
	}
}

// Unsupported creates an unsupported feature error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
		Offset: -1,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Offset: -1,
	}
}

// Load creates a component loading error
func Load(detail string, cause error) *Error {
	return Wrap(PhaseLoad, KindHostFailure, cause, detail)
}

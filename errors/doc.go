// Package errors provides structured error types for the call bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). A call expression fails with exactly one of:
//
//   - syntax: the call text is malformed (PhaseParse)
//   - arity: argument count differs from the parameter count (PhaseResolve)
//   - overflow, unknown_case, malformed: a literal does not fit its declared
//     type (PhaseDecode)
//   - host_failure, protocol_violation: the ABI call failed or the host broke
//     the result contract (PhaseInvoke)
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindMalformed).
//		Path("point", "x").
//		Type("u32").
//		Detail("expected a number").
//		Build()
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match any error of the same Phase and Kind:
//
//	if errors.Is(err, errors.ErrOverflow) { ... }
package errors

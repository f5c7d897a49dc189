// Package errors defines the structured error taxonomy for the
// playground: every boundary-crossing failure (module load, guest calls,
// persisted state reads) is converted into an *Error at the crossing
// point and never propagates as an unstructured fault.
//
// Errors carry a Phase (where) and a Kind (what), matchable with
// errors.Is. Message() produces the user-safe rendering; Cause and Detail
// are internal diagnostics only.
package errors

package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // module fetch + instantiation
	PhaseCall      Phase = "call"      // host/guest boundary crossing
	PhaseSession   Phase = "session"   // persisted state
	PhaseClipboard Phase = "clipboard" // copy-to-clipboard actions
)

// Kind categorizes the error
type Kind string

const (
	KindInitFailed        Kind = "initialization_failed"
	KindDocumentTooLarge  Kind = "document_too_large"
	KindPathTooLarge      Kind = "path_too_large"
	KindEmptyPath         Kind = "empty_path"
	KindGuestExecution    Kind = "guest_execution_failed"
	KindQueryFailed       Kind = "query_failed"
	KindHistoryCorrupt    Kind = "history_corrupt"
	KindSharedCorrupt     Kind = "shared_state_corrupt"
	KindClipboard         Kind = "clipboard_unavailable"
	KindMissingExport     Kind = "missing_export"
	KindNotInitialized    Kind = "not_initialized"
	KindInvalidInput      Kind = "invalid_input"
	KindInstantiation     Kind = "instantiation"
)

// Error is the structured error type used throughout the playground.
// User-facing text comes from Message(); Detail and Cause are diagnostics
// and never reach the result area.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Size   int
	Limit  int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Limit > 0 {
		fmt.Fprintf(&b, " (%d bytes, max %d)", e.Size, e.Limit)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
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

// Message returns the user-safe rendering of the error. Internal
// diagnostics (Cause, Detail beyond the fixed texts) are excluded for
// boundary-crossing kinds.
func (e *Error) Message() string {
	switch e.Kind {
	case KindInitFailed:
		return "Query module failed to initialize. Restart the playground to try again."
	case KindDocumentTooLarge:
		return fmt.Sprintf("Document too large (%d bytes, max %d)", e.Size, e.Limit)
	case KindPathTooLarge:
		return fmt.Sprintf("Query path too large (%d bytes, max %d)", e.Size, e.Limit)
	case KindEmptyPath:
		return "Query path cannot be empty"
	case KindGuestExecution:
		return GuestFailureMessage
	case KindClipboard:
		return "Clipboard is not available"
	default:
		return e.Detail
	}
}

// GuestFailureMessage is the fixed user-safe text for abrupt guest
// termination. It never varies with the underlying fault.
const GuestFailureMessage = "Query execution failed due to resource limits or invalid input"

// Convenience constructors for the taxonomy

// InitializationFailed marks the module as terminally unusable for the session.
func InitializationFailed(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInitFailed,
		Detail: "module never became usable",
		Cause:  cause,
	}
}

// DocumentTooLarge rejects a document exceeding the boundary limit.
func DocumentTooLarge(size, limit int) *Error {
	return &Error{
		Phase: PhaseCall,
		Kind:  KindDocumentTooLarge,
		Size:  size,
		Limit: limit,
	}
}

// PathTooLarge rejects a query path exceeding the boundary limit.
func PathTooLarge(size, limit int) *Error {
	return &Error{
		Phase: PhaseCall,
		Kind:  KindPathTooLarge,
		Size:  size,
		Limit: limit,
	}
}

// EmptyPath rejects a blank query path.
func EmptyPath() *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindEmptyPath,
		Detail: "query path cannot be empty",
	}
}

// GuestExecution converts an abrupt guest-side failure into data.
// The cause stays internal; Message() renders the fixed safe text.
func GuestExecution(cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindGuestExecution,
		Detail: "guest terminated abruptly",
		Cause:  cause,
	}
}

// QueryFailed carries a user-safe failure message reported by the guest
// itself (as data, not a trap). The message renders verbatim.
func QueryFailed(message string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindQueryFailed,
		Detail: message,
	}
}

// HistoryCorrupt marks persisted history that failed validation on load.
func HistoryCorrupt(detail string) *Error {
	return &Error{
		Phase:  PhaseSession,
		Kind:   KindHistoryCorrupt,
		Detail: detail,
	}
}

// SharedStateCorrupt marks a decoded URL field that failed validation.
func SharedStateCorrupt(field string) *Error {
	return &Error{
		Phase:  PhaseSession,
		Kind:   KindSharedCorrupt,
		Detail: fmt.Sprintf("shared field %q discarded", field),
	}
}

// ClipboardUnavailable marks a degraded copy action. Non-fatal.
func ClipboardUnavailable(cause error) *Error {
	return &Error{
		Phase:  PhaseClipboard,
		Kind:   KindClipboard,
		Detail: "copy to clipboard failed",
		Cause:  cause,
	}
}

// MissingExport reports a guest that failed to publish a required entry point.
func MissingExport(names []string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("guest did not publish: %s", strings.Join(names, ", ")),
	}
}

// NotInitialized reports use of a component before its lifecycle began.
func NotInitialized(component string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// InvalidInput reports malformed caller input outside the size taxonomy.
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Instantiation wraps a guest instantiation failure.
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

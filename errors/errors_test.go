package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "size error",
			err:      DocumentTooLarge(11000000, 10485760),
			contains: []string{"[call]", "document_too_large", "11000000", "10485760"},
		},
		{
			name:     "minimal error",
			err:      EmptyPath(),
			contains: []string{"[call]", "empty_path"},
		},
		{
			name:     "error with cause",
			err:      GuestExecution(errors.New("wasm trap: out of bounds")),
			contains: []string{"[call]", "guest_execution_failed", "caused by", "wasm trap"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := InitializationFailed(cause)

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not match wrapped cause")
	}
}

func TestError_Is(t *testing.T) {
	err := DocumentTooLarge(20, 10)

	if !errors.Is(err, &Error{Phase: PhaseCall, Kind: KindDocumentTooLarge}) {
		t.Error("Is should match same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseSession, Kind: KindDocumentTooLarge}) {
		t.Error("Is should not match different phase")
	}
	if errors.Is(err, &Error{Phase: PhaseCall, Kind: KindPathTooLarge}) {
		t.Error("Is should not match different kind")
	}
}

func TestMessage_NoInternalDetail(t *testing.T) {
	err := GuestExecution(errors.New("stack trace: 0xdeadbeef"))

	msg := err.Message()
	if msg != GuestFailureMessage {
		t.Errorf("Message() = %q, want fixed guest failure text", msg)
	}
	if strings.Contains(msg, "deadbeef") {
		t.Error("user-safe message leaked internal diagnostics")
	}
}

func TestMessage_SizeErrors(t *testing.T) {
	msg := PathTooLarge(5000, 4096).Message()
	for _, s := range []string{"5000", "4096"} {
		if !strings.Contains(msg, s) {
			t.Errorf("Message() = %q, want offending size %s", msg, s)
		}
	}
}

func TestMissingExport(t *testing.T) {
	err := MissingExport([]string{"version"})
	if !strings.Contains(err.Error(), "version") {
		t.Errorf("missing export error %q should name the export", err.Error())
	}
	if !errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindMissingExport}) {
		t.Error("Is should match missing_export")
	}
}

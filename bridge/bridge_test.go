package bridge

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	playground "github.com/querypath/playground"
	"github.com/querypath/playground/errors"
)

type stubSurface struct {
	evalResult  playground.RawResult
	evalErr     error
	validResult bool
	validErr    error
	version     string
	versionErr  error
	panicOn     string

	evalCalls  int
	validCalls int
}

func (s *stubSurface) Evaluate(ctx context.Context, document, path string) (playground.RawResult, error) {
	s.evalCalls++
	if s.panicOn == "evaluate" {
		panic("guest memory exhausted")
	}
	return s.evalResult, s.evalErr
}

func (s *stubSurface) Validate(ctx context.Context, document string) (bool, error) {
	s.validCalls++
	if s.panicOn == "validate" {
		panic("guest memory exhausted")
	}
	return s.validResult, s.validErr
}

func (s *stubSurface) Version(ctx context.Context) (string, error) {
	if s.panicOn == "version" {
		panic("guest memory exhausted")
	}
	return s.version, s.versionErr
}

func (s *stubSurface) Close(ctx context.Context) error { return nil }

type stubSource struct {
	surface playground.Surface
	err     error
}

func (s *stubSource) EnsureReady(ctx context.Context) (playground.Surface, error) {
	return s.surface, s.err
}

func newTestBridge(surface *stubSurface) *Bridge {
	return New(&stubSource{surface: surface}, nil)
}

func TestEvaluate_Success(t *testing.T) {
	surface := &stubSurface{
		evalResult: playground.RawResult{
			Value:  "2",
			Raw:    "<b>2</b>",
			Exists: true,
			Type:   "Element",
			Index:  1,
		},
	}
	b := newTestBridge(surface)

	got, err := b.Evaluate(context.Background(), "<a><b>1</b><b>2</b></a>", "a.b.1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := Result{Value: "2", Raw: "<b>2</b>", Exists: true, Kind: KindElement, Index: 1}
	if got != want {
		t.Errorf("Evaluate = %+v, want %+v", got, want)
	}
}

func TestEvaluate_DocumentSizeBoundary(t *testing.T) {
	surface := &stubSurface{evalResult: playground.RawResult{Exists: false, Type: "Null"}}
	b := newTestBridge(surface)

	atLimit := strings.Repeat("a", MaxDocumentBytes)
	if _, err := b.Evaluate(context.Background(), atLimit, "a"); err != nil {
		t.Fatalf("document of exactly %d bytes rejected: %v", MaxDocumentBytes, err)
	}
	if surface.evalCalls != 1 {
		t.Fatalf("guest called %d times, want 1", surface.evalCalls)
	}

	overLimit := atLimit + "a"
	_, err := b.Evaluate(context.Background(), overLimit, "a")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindDocumentTooLarge}) {
		t.Fatalf("got %v, want DocumentTooLarge", err)
	}
	if surface.evalCalls != 1 {
		t.Errorf("oversized document reached the guest (%d calls)", surface.evalCalls)
	}
}

func TestEvaluate_PathGuards(t *testing.T) {
	tests := []struct {
		name string
		path string
		kind errors.Kind
	}{
		{"empty", "", errors.KindEmptyPath},
		{"blank", "   \t ", errors.KindEmptyPath},
		{"too large", strings.Repeat("a", MaxPathBytes+1), errors.KindPathTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := &stubSurface{}
			b := newTestBridge(surface)

			_, err := b.Evaluate(context.Background(), "<a/>", tt.path)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: tt.kind}) {
				t.Fatalf("got %v, want %s", err, tt.kind)
			}
			if surface.evalCalls != 0 {
				t.Error("rejected path reached the guest")
			}
		})
	}
}

func TestEvaluate_PathAtLimit(t *testing.T) {
	surface := &stubSurface{evalResult: playground.RawResult{Type: "Null"}}
	b := newTestBridge(surface)

	if _, err := b.Evaluate(context.Background(), "<a/>", strings.Repeat("a", MaxPathBytes)); err != nil {
		t.Fatalf("path of exactly %d bytes rejected: %v", MaxPathBytes, err)
	}
}

func TestEvaluate_GuestPanicConvertsToData(t *testing.T) {
	b := newTestBridge(&stubSurface{panicOn: "evaluate"})

	_, err := b.Evaluate(context.Background(), "<a/>", "a")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindGuestExecution}) {
		t.Fatalf("got %v, want GuestExecutionFailed", err)
	}

	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatal("expected *errors.Error")
	}
	if e.Message() != errors.GuestFailureMessage {
		t.Errorf("Message() = %q, want the fixed guest failure text", e.Message())
	}
	if strings.Contains(e.Message(), "memory exhausted") {
		t.Error("raw termination detail leaked into the user-safe message")
	}
}

func TestEvaluate_GuestTrapConvertsToData(t *testing.T) {
	b := newTestBridge(&stubSurface{evalErr: stderrors.New("wasm trap: unreachable")})

	_, err := b.Evaluate(context.Background(), "<a/>", "a")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindGuestExecution}) {
		t.Fatalf("got %v, want GuestExecutionFailed", err)
	}
}

func TestEvaluate_GuestReportedFailure(t *testing.T) {
	b := newTestBridge(&stubSurface{
		evalResult: playground.RawResult{Error: "invalid path syntax at position 3"},
	})

	_, err := b.Evaluate(context.Background(), "<a/>", "a..b")
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindQueryFailed {
		t.Fatalf("got %v, want QueryFailed", err)
	}
	if e.Message() != "invalid path syntax at position 3" {
		t.Errorf("Message() = %q, want the guest's own message", e.Message())
	}
}

func TestEvaluate_UnknownTagMapsToUnknown(t *testing.T) {
	b := newTestBridge(&stubSurface{
		evalResult: playground.RawResult{Value: "x", Exists: true, Type: "InternalCode17"},
	})

	got, err := b.Evaluate(context.Background(), "<a/>", "a")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Kind != KindUnknown {
		t.Errorf("Kind = %v, want Unknown", got.Kind)
	}
}

func TestEvaluate_InitFailurePropagates(t *testing.T) {
	initErr := errors.InitializationFailed(stderrors.New("fetch failed"))
	b := New(&stubSource{err: initErr}, nil)

	_, err := b.Evaluate(context.Background(), "<a/>", "a")
	if !stderrors.Is(err, initErr) {
		t.Fatalf("got %v, want the initialization failure", err)
	}
}

func TestValidate_NeverRaises(t *testing.T) {
	tests := []struct {
		name    string
		surface *stubSurface
		doc     string
		want    bool
	}{
		{"well-formed", &stubSurface{validResult: true}, "<a/>", true},
		{"malformed", &stubSurface{validResult: false}, "<a>", false},
		{"panic", &stubSurface{panicOn: "validate"}, "<a/>", false},
		{"trap", &stubSurface{validErr: stderrors.New("trap")}, "<a/>", false},
		{"oversized", &stubSurface{validResult: true}, strings.Repeat("a", MaxDocumentBytes+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBridge(tt.surface)
			if got := b.Validate(context.Background(), tt.doc); got != tt.want {
				t.Errorf("Validate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_OversizedSkipsGuest(t *testing.T) {
	surface := &stubSurface{validResult: true}
	b := newTestBridge(surface)

	b.Validate(context.Background(), strings.Repeat("a", MaxDocumentBytes+1))
	if surface.validCalls != 0 {
		t.Error("oversized document reached the guest")
	}
}

func TestVersion(t *testing.T) {
	if got := newTestBridge(&stubSurface{version: "0.1.0"}).Version(context.Background()); got != "0.1.0" {
		t.Errorf("Version = %q, want 0.1.0", got)
	}
	if got := newTestBridge(&stubSurface{panicOn: "version"}).Version(context.Background()); got != "" {
		t.Errorf("Version after panic = %q, want empty", got)
	}
}

func TestKindFromTag(t *testing.T) {
	tags := map[string]Kind{
		"Null":      KindNull,
		"String":    KindString,
		"Number":    KindNumber,
		"True":      KindTrue,
		"False":     KindFalse,
		"Element":   KindElement,
		"Attribute": KindAttribute,
		"Array":     KindArray,
		"":          KindUnknown,
		"garbage":   KindUnknown,
	}
	for tag, want := range tags {
		if got := KindFromTag(tag); got != want {
			t.Errorf("KindFromTag(%q) = %v, want %v", tag, got, want)
		}
	}
}

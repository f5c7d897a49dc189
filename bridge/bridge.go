package bridge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	playground "github.com/querypath/playground"
	"github.com/querypath/playground/errors"
)

// Input size limits, mirrored on the guest side. The bridge enforces
// them before anything crosses the boundary.
const (
	MaxDocumentBytes = 10 * 1024 * 1024
	MaxPathBytes     = 4096
)

// Source resolves the ready call surface. The lifecycle manager
// implements it; every bridge operation passes through it before
// touching the guest.
type Source interface {
	EnsureReady(ctx context.Context) (playground.Surface, error)
}

// Bridge is the validated, recovery-scoped gateway to the three guest
// operations. Guest failures of any shape come back as typed errors or
// safe zero values, never as faults.
type Bridge struct {
	source Source
	log    *zap.Logger
}

// New creates a bridge over the given surface source.
func New(source Source, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{source: source, log: log}
}

// Evaluate runs one query. Preconditions: document within 10 MiB, path
// non-blank and within 4 KiB; violations reject before any guest call.
// Guest-reported failures surface as QueryFailed with the guest's own
// user-safe message; abrupt terminations become GuestExecutionFailed
// with a fixed message and no internal detail.
func (b *Bridge) Evaluate(ctx context.Context, document, path string) (Result, error) {
	if len(document) > MaxDocumentBytes {
		return Result{}, errors.DocumentTooLarge(len(document), MaxDocumentBytes)
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.EmptyPath()
	}
	if len(path) > MaxPathBytes {
		return Result{}, errors.PathTooLarge(len(path), MaxPathBytes)
	}

	surface, err := b.source.EnsureReady(ctx)
	if err != nil {
		return Result{}, err
	}

	raw, err := b.callEvaluate(ctx, surface, document, path)
	if err != nil {
		b.log.Warn("evaluate crossed back abruptly", zap.Error(err))
		return Result{}, errors.GuestExecution(err)
	}
	if raw.Error != "" {
		return Result{}, errors.QueryFailed(raw.Error)
	}

	return Result{
		Value:  raw.Value,
		Raw:    raw.Raw,
		Kind:   KindFromTag(raw.Type),
		Index:  raw.Index,
		Exists: raw.Exists,
	}, nil
}

// Validate reports whether the guest accepts the document. Any abrupt
// termination, precondition violation, or readiness failure resolves to
// false; this operation never raises.
func (b *Bridge) Validate(ctx context.Context, document string) bool {
	if len(document) > MaxDocumentBytes {
		return false
	}

	surface, err := b.source.EnsureReady(ctx)
	if err != nil {
		return false
	}

	ok, err := b.callValidate(ctx, surface, document)
	if err != nil {
		b.log.Warn("validate crossed back abruptly", zap.Error(err))
		return false
	}
	return ok
}

// Version returns the guest's version string. No preconditions; a guest
// failure degrades to an empty string with a logged diagnostic.
func (b *Bridge) Version(ctx context.Context) string {
	surface, err := b.source.EnsureReady(ctx)
	if err != nil {
		return ""
	}

	v, err := b.callVersion(ctx, surface)
	if err != nil {
		b.log.Warn("version crossed back abruptly", zap.Error(err))
		return ""
	}
	return v
}

// The call* helpers are the recovery scopes: a guest that panics through
// the surface is caught here and observed as an error value.

func (b *Bridge) callEvaluate(ctx context.Context, surface playground.Surface, document, path string) (raw playground.RawResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("guest panic: %v", r)
		}
	}()
	return surface.Evaluate(ctx, document, path)
}

func (b *Bridge) callValidate(ctx context.Context, surface playground.Surface, document string) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("guest panic: %v", r)
		}
	}()
	return surface.Validate(ctx, document)
}

func (b *Bridge) callVersion(ctx context.Context, surface playground.Surface) (v string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("guest panic: %v", r)
		}
	}()
	return surface.Version(ctx)
}

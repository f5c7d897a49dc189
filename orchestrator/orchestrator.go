// Package orchestrator drives one end-to-end query: input hygiene,
// readiness, size checks, the guest call, and the history/share side
// effects. It is the only package that touches every other component.
package orchestrator

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"github.com/querypath/playground/bridge"
	"github.com/querypath/playground/errors"
	"github.com/querypath/playground/lifecycle"
	"github.com/querypath/playground/listener"
	"github.com/querypath/playground/session"
)

// Subscription slot the orchestrator emits outcomes on.
const (
	ResultTarget = "query"
	ResultEvent  = "result"
)

// OutcomeKind classifies what a query execution produced.
type OutcomeKind int

const (
	// OutcomeCleared: an input was empty, the result area should reset.
	// No guest call was made.
	OutcomeCleared OutcomeKind = iota
	// OutcomeSuccess: the query evaluated; Result holds the fields.
	OutcomeSuccess
	// OutcomeFailure: the query failed; Message is user-safe text,
	// Hint (possibly empty) a remediation suggestion.
	OutcomeFailure
)

// Outcome is the rendered end state of one Execute call.
type Outcome struct {
	Kind    OutcomeKind
	Result  bridge.Result
	Message string
	Hint    string

	// Terminal marks failures the session cannot recover from; the UI
	// should recommend a restart instead of offering a retry.
	Terminal bool

	// ShareQuery is the recomputed shareable query string. Updated on
	// success only.
	ShareQuery string
}

// Orchestrator glues the lifecycle manager, call bridge, session state,
// and subscription registry together.
type Orchestrator struct {
	manager  *lifecycle.Manager
	bridge   *bridge.Bridge
	history  *session.History
	share    *session.Share
	registry *listener.Registry
	log      *zap.Logger
}

// New creates an orchestrator. registry may be nil when no one
// subscribes to outcomes.
func New(manager *lifecycle.Manager, b *bridge.Bridge, history *session.History, share *session.Share, registry *listener.Registry, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		manager:  manager,
		bridge:   b,
		history:  history,
		share:    share,
		registry: registry,
		log:      log,
	}
}

// Execute runs one query end to end and returns the outcome. The same
// outcome is also emitted on the (ResultTarget, ResultEvent) slot when
// a registry is wired.
//
// Sequence: trim both inputs, short-circuit to a cleared outcome when
// either is empty, establish readiness, re-validate sizes, evaluate,
// then on success record the path and recompute the share string.
func (o *Orchestrator) Execute(ctx context.Context, document, path string) Outcome {
	out := o.execute(ctx, document, path)
	if o.registry != nil {
		o.registry.Emit(ResultTarget, ResultEvent, out)
	}
	return out
}

func (o *Orchestrator) execute(ctx context.Context, document, path string) Outcome {
	document = strings.TrimSpace(document)
	path = strings.TrimSpace(path)

	if document == "" || path == "" {
		return Outcome{Kind: OutcomeCleared}
	}

	if _, err := o.manager.EnsureReady(ctx); err != nil {
		o.log.Warn("readiness failed", zap.Error(err))
		return Outcome{
			Kind:     OutcomeFailure,
			Message:  userMessage(err),
			Hint:     "The query engine could not be loaded. Restart the application to try again.",
			Terminal: true,
		}
	}

	// The bridge guards these again; checking here keeps oversized
	// input from crossing the boundary at all.
	if len(document) > bridge.MaxDocumentBytes {
		err := errors.DocumentTooLarge(len(document), bridge.MaxDocumentBytes)
		return Outcome{Kind: OutcomeFailure, Message: userMessage(err), Hint: hintFor(err.Message())}
	}
	if len(path) > bridge.MaxPathBytes {
		err := errors.PathTooLarge(len(path), bridge.MaxPathBytes)
		return Outcome{Kind: OutcomeFailure, Message: userMessage(err), Hint: hintFor(err.Message())}
	}

	result, err := o.bridge.Evaluate(ctx, document, path)
	if err != nil {
		msg := userMessage(err)
		return Outcome{Kind: OutcomeFailure, Message: msg, Hint: hintFor(msg)}
	}

	if err := o.history.Record(path); err != nil {
		o.log.Warn("history record failed", zap.Error(err))
	}

	return Outcome{
		Kind:       OutcomeSuccess,
		Result:     result,
		ShareQuery: o.share.Encode(document, path),
	}
}

// RestoreShared re-validates decoded share-link state before it reaches
// the UI. A shared document the guest rejects is dropped from the state
// (the default document stays loaded) and reported so the UI can show a
// notice; the path field rides along untouched either way.
func (o *Orchestrator) RestoreShared(ctx context.Context, state session.SharedState) (session.SharedState, bool) {
	if !state.HasDocument || state.Document == "" {
		return state, false
	}

	if !o.bridge.Validate(ctx, state.Document) {
		o.log.Warn("rejecting invalid shared document",
			zap.Int("bytes", len(state.Document)))
		state.Document = ""
		state.HasDocument = false
		return state, true
	}
	return state, false
}

// ShareLink recomputes the shareable query string for the current
// inputs without executing anything.
func (o *Orchestrator) ShareLink(document, path string) string {
	return o.share.Encode(strings.TrimSpace(document), strings.TrimSpace(path))
}

// History exposes the session history for UI listing and clearing.
func (o *Orchestrator) History() *session.History {
	return o.history
}

// userMessage extracts the user-safe message from an error. Structured
// errors render their Message; anything else falls back to the generic
// guest-failure text so internal diagnostics never reach the UI.
func userMessage(err error) string {
	var perr *errors.Error
	if stderrors.As(err, &perr) {
		return perr.Message()
	}
	return errors.GuestFailureMessage
}

// hintFor appends a remediation hint for known failure categories.
func hintFor(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "timeout"):
		return "The query took too long. Try a simpler path or a smaller document."
	case strings.Contains(lower, "too large"):
		return "Reduce the input size and try again."
	default:
		return ""
	}
}

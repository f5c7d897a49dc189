// Package playground hosts a compiled query-evaluation module and the
// session machinery around it: a race-free module lifecycle, a guarded
// call bridge across the host/guest boundary, persisted query history,
// and shareable URL state.
//
// The evaluation engine itself is a black box reached through the Surface
// interface. This module loads it exactly once, marshals untrusted input
// into it under strict size limits, and translates every guest-side
// failure into a typed, user-safe outcome.
//
// Package layout:
//
//	engine          wazero-backed Surface implementation
//	lifecycle       one-time load state machine (Initialize / EnsureReady)
//	bridge          guarded evaluate / validate / version operations
//	session         history store and share-URL codec
//	orchestrator    end-to-end query driver with debounced triggers
//	listener        deduplicated event subscription table
//	errors          structured error taxonomy
//	examples        built-in example documents
//	config          YAML configuration
//	cmd/playground  interactive terminal UI
package playground

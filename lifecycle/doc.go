// Package lifecycle owns the one-time load of the compiled evaluation
// module and the state machine other components query before issuing
// calls.
//
// The core contract is race avoidance: any number of near-simultaneous
// Initialize or EnsureReady callers trigger at most one load, share one
// pending operation, and resolve to one outcome. StateFailed is terminal
// for the session; callers surface it as a reload recommendation rather
// than retrying.
package lifecycle

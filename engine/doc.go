// Package engine hosts the compiled query-evaluation module inside a
// wazero runtime and exposes it as the playground.Surface call surface.
//
// The expected surface is declared as WIT text (see surface.go) and
// parsed at load time; after instantiation the engine waits a bounded
// settling period for the guest to publish every declared entry point
// before reporting the guest usable.
//
// Strings cross the boundary through the guest's exported allocator as
// (ptr, len) pairs; string results come back as a packed u64
// (ptr<<32 | len). The evaluate result is a JSON payload decoded into
// playground.RawResult.
//
// A Guest is NOT safe for concurrent use; calls are serialized with an
// internal mutex.
package engine

// Package session persists and restores session state: the bounded
// query history and the shareable URL codec.
//
// Both read sides treat their sources as attacker-writable (tampered
// local storage, crafted share links) and validate strictly on every
// load. Corrupt history is discarded whole; an oversized URL field is
// dropped individually. Neither path ever surfaces an error to the
// user - recovery is fail-closed and silent.
package session

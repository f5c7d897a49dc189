// Package bridge is the synchronous, validated gateway between host code
// and the guest evaluation module.
//
// Every operation enforces the input size limits before anything crosses
// the boundary, resolves the ready surface through the lifecycle
// manager, and runs the crossing inside a recovery scope. The guest may
// fail in ways the host cannot predict; the bridge's job is to make
// every such failure observable as data.
package bridge

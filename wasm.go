package playground

import "context"

// RawResult is the untranslated guest evaluation payload: the four-tuple
// the guest returns plus its internal type tag. The bridge maps Type
// through a fixed enum table before anything user-facing sees it.
type RawResult struct {
	Value  string `json:"value"`
	Raw    string `json:"raw"`
	Type   string `json:"type"`
	Error  string `json:"error,omitempty"`
	Index  int    `json:"index"`
	Exists bool   `json:"exists"`
}

// Surface is the guest call surface: the three operations the evaluation
// module must publish before the lifecycle manager reports ready.
//
// Implementations may fail in ways the host cannot predict (traps,
// resource exhaustion). Callers cross this boundary only through the call
// bridge, which converts every such failure into data.
type Surface interface {
	Evaluate(ctx context.Context, document, path string) (RawResult, error)
	Validate(ctx context.Context, document string) (bool, error)
	Version(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// Memory represents guest linear memory.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// Allocator allocates memory in guest linear memory.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
	Free(ptr, size uint32)
}

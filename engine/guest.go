package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	playground "github.com/querypath/playground"
	"github.com/querypath/playground/errors"
)

// Guest is a running evaluation module. It implements playground.Surface.
// Calls are serialized; a wazero module instance is not safe for
// concurrent use.
type Guest struct {
	mod      api.Module
	mem      api.Memory
	evaluate api.Function
	validate api.Function
	version  api.Function
	alloc    *guestAllocator
	owner    *Engine
	log      *zap.Logger
	stack    []uint64
	mu       sync.Mutex
}

func newGuest(mod api.Module, log *zap.Logger) (*Guest, error) {
	mem := mod.Memory()
	if mem == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "guest exports no linear memory")
	}

	alloc, err := newGuestAllocator(mod)
	if err != nil {
		return nil, err
	}

	return &Guest{
		mod:      mod,
		mem:      mem,
		evaluate: mod.ExportedFunction("evaluate"),
		validate: mod.ExportedFunction("validate"),
		version:  mod.ExportedFunction("version"),
		alloc:    alloc,
		log:      log,
		stack:    make([]uint64, 8),
	}, nil
}

// Evaluate crosses the boundary with both strings lowered through the
// guest allocator and decodes the packed JSON payload that comes back.
func (g *Guest) Evaluate(ctx context.Context, document, path string) (playground.RawResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var allocs allocationList
	defer allocs.free(ctx, g.alloc)

	docPtr, docLen, err := g.lowerString(ctx, document, &allocs)
	if err != nil {
		return playground.RawResult{}, fmt.Errorf("lower document: %w", err)
	}
	pathPtr, pathLen, err := g.lowerString(ctx, path, &allocs)
	if err != nil {
		return playground.RawResult{}, fmt.Errorf("lower path: %w", err)
	}

	g.stack[0] = uint64(docPtr)
	g.stack[1] = uint64(docLen)
	g.stack[2] = uint64(pathPtr)
	g.stack[3] = uint64(pathLen)
	if err := g.evaluate.CallWithStack(ctx, g.stack[:4]); err != nil {
		return playground.RawResult{}, fmt.Errorf("call evaluate: %w", err)
	}

	payload, err := g.liftString(ctx, g.stack[0])
	if err != nil {
		return playground.RawResult{}, fmt.Errorf("lift result: %w", err)
	}

	var raw playground.RawResult
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return playground.RawResult{}, fmt.Errorf("decode result: %w", err)
	}
	return raw, nil
}

// Validate returns whether the guest accepts the document as well-formed.
func (g *Guest) Validate(ctx context.Context, document string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var allocs allocationList
	defer allocs.free(ctx, g.alloc)

	docPtr, docLen, err := g.lowerString(ctx, document, &allocs)
	if err != nil {
		return false, fmt.Errorf("lower document: %w", err)
	}

	g.stack[0] = uint64(docPtr)
	g.stack[1] = uint64(docLen)
	if err := g.validate.CallWithStack(ctx, g.stack[:2]); err != nil {
		return false, fmt.Errorf("call validate: %w", err)
	}
	return uint32(g.stack[0]) != 0, nil
}

// Version returns the guest's version string.
func (g *Guest) Version(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stack[0] = 0
	if err := g.version.CallWithStack(ctx, g.stack[:1]); err != nil {
		return "", fmt.Errorf("call version: %w", err)
	}
	return g.liftString(ctx, g.stack[0])
}

// Close releases the guest instance, and its engine when the guest owns one.
func (g *Guest) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.mod.Close(ctx)
	if g.owner != nil {
		if cerr := g.owner.Close(ctx); err == nil {
			err = cerr
		}
		g.owner = nil
	}
	return err
}

// lowerString writes s into guest memory and records the allocation for
// cleanup. Empty strings lower to (0, 0) without allocating.
func (g *Guest) lowerString(ctx context.Context, s string, allocs *allocationList) (uint32, uint32, error) {
	if len(s) == 0 {
		return 0, 0, nil
	}

	size := uint32(len(s))
	ptr, err := g.alloc.alloc(ctx, size)
	if err != nil {
		return 0, 0, err
	}
	allocs.add(ptr, size)

	if !g.mem.Write(ptr, []byte(s)) {
		return 0, 0, fmt.Errorf("write out of bounds: offset=%d, length=%d", ptr, size)
	}
	return ptr, size, nil
}

// liftString reads a packed (ptr<<32 | len) string result out of guest
// memory and frees the guest-side allocation.
func (g *Guest) liftString(ctx context.Context, packed uint64) (string, error) {
	ptr, size := unpackPtrLen(packed)
	if size == 0 {
		return "", nil
	}

	data, ok := g.mem.Read(ptr, size)
	if !ok {
		return "", fmt.Errorf("read out of bounds: offset=%d, length=%d", ptr, size)
	}
	s := string(data) // copy before freeing guest memory
	g.alloc.freeMem(ctx, ptr, size)
	return s, nil
}

func unpackPtrLen(packed uint64) (ptr, size uint32) {
	return uint32(packed >> 32), uint32(packed)
}

// guestAllocator wraps the guest's exported allocator. cabi_realloc is
// detected by its four-parameter signature; plain alloc takes one.
type guestAllocator struct {
	allocFn       api.Function
	freeFn        api.Function
	stackBuf      []uint64
	isSimpleAlloc bool
}

func newGuestAllocator(mod api.Module) (*guestAllocator, error) {
	allocDef := mod.ExportedFunctionDefinitions()[cabiRealloc]
	if allocDef == nil {
		allocDef = mod.ExportedFunctionDefinitions()[simpleAlloc]
	}
	if allocDef == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "guest exports no allocator")
	}

	allocFn := mod.ExportedFunction(allocDef.Name())
	isSimple := len(allocDef.ParamTypes()) < 4

	freeFn := mod.ExportedFunction(cabiFree)
	if freeFn == nil {
		freeFn = mod.ExportedFunction(simpleFree)
	}

	return &guestAllocator{
		allocFn:       allocFn,
		freeFn:        freeFn,
		stackBuf:      make([]uint64, 4),
		isSimpleAlloc: isSimple,
	}, nil
}

func (a *guestAllocator) alloc(ctx context.Context, size uint32) (uint32, error) {
	if a.isSimpleAlloc {
		a.stackBuf[0] = uint64(size)
		if err := a.allocFn.CallWithStack(ctx, a.stackBuf[:1]); err != nil {
			return 0, err
		}
		return uint32(a.stackBuf[0]), nil
	}

	a.stackBuf[0] = 0
	a.stackBuf[1] = 0
	a.stackBuf[2] = 1 // align
	a.stackBuf[3] = uint64(size)
	if err := a.allocFn.CallWithStack(ctx, a.stackBuf[:4]); err != nil {
		return 0, err
	}
	return uint32(a.stackBuf[0]), nil
}

// freeMem is best-effort; failure to free leaks guest memory but never
// fails the call.
func (a *guestAllocator) freeMem(ctx context.Context, ptr, size uint32) {
	if a.freeFn == nil || ptr == 0 {
		return
	}
	a.stackBuf[0] = uint64(ptr)
	a.stackBuf[1] = uint64(size)
	if err := a.freeFn.CallWithStack(ctx, a.stackBuf[:2]); err != nil {
		Logger().Warn("free guest allocation failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

// Compile-time check that Guest implements the guest call surface
var _ playground.Surface = (*Guest)(nil)

type allocation struct {
	ptr  uint32
	size uint32
}

type allocationList struct {
	allocations []allocation
}

func (al *allocationList) add(ptr, size uint32) {
	al.allocations = append(al.allocations, allocation{ptr: ptr, size: size})
}

func (al *allocationList) free(ctx context.Context, a *guestAllocator) {
	for _, alloc := range al.allocations {
		a.freeMem(ctx, alloc.ptr, alloc.size)
	}
	al.allocations = nil
}

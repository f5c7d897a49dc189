package engine

import (
	"context"
	"os"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	playground "github.com/querypath/playground"
	"github.com/querypath/playground/errors"
)

// Export names accepted for the guest allocator. Standard cabi_realloc
// is preferred; plain alloc/free is the fallback for hand-rolled guests.
const (
	cabiRealloc = "cabi_realloc"
	cabiFree    = "cabi_free"
	simpleAlloc = "alloc"
	simpleFree  = "free"

	initializeFn = "_initialize"
)

const (
	defaultSettleTimeout = 2 * time.Second
	settlePollInterval   = 10 * time.Millisecond
)

// Config holds configuration for engine creation.
type Config struct {
	Logger *zap.Logger

	// MemoryLimitPages caps guest memory in 64KB pages. 0 means the
	// wazero default. The guest mirrors its own limits; this is the
	// host-side backstop against allocation bombs.
	MemoryLimitPages uint32

	// SettleTimeout bounds how long Load waits for the guest to publish
	// its declared entry points after instantiation.
	SettleTimeout time.Duration
}

func (c *Config) defaults() {
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = defaultSettleTimeout
	}
	if c.Logger == nil {
		c.Logger = Logger()
	}
}

// Engine owns a wazero runtime. One engine hosts one guest; loading into
// a fresh engine gives the guest a fresh execution context.
type Engine struct {
	runtime wazero.Runtime
	log     *zap.Logger
	cfg     Config
}

// New creates an engine with default configuration.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	c.defaults()

	runtimeCfg := wazero.NewRuntimeConfig()
	if c.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
	}

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		log:     c.Logger,
		cfg:     c,
	}, nil
}

// Close releases all engine resources. The guest is unusable afterwards.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Load compiles and instantiates the module bytes, starts the guest, and
// waits up to the settle timeout for the declared call surface to be
// published. A guest missing any entry point fails the load.
func (e *Engine) Load(ctx context.Context, wasmBytes []byte) (*Guest, error) {
	sigs, err := parseSurface(surfaceWIT)
	if err != nil {
		return nil, err
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	// Start functions are invoked explicitly below so a misbehaving
	// _start cannot wedge instantiation.
	modConfig := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	mod, err := e.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	if init := mod.ExportedFunction(initializeFn); init != nil {
		if _, err := init.Call(ctx); err != nil {
			mod.Close(ctx)
			return nil, errors.Instantiation(err)
		}
	}

	if missing := e.settle(ctx, mod, sigs); len(missing) > 0 {
		mod.Close(ctx)
		return nil, errors.MissingExport(missing)
	}

	if err := checkSignatures(mod, sigs); err != nil {
		mod.Close(ctx)
		return nil, err
	}

	guest, err := newGuest(mod, e.log)
	if err != nil {
		mod.Close(ctx)
		return nil, err
	}

	e.log.Info("guest module loaded",
		zap.Int("bytes", len(wasmBytes)),
		zap.Uint32("memory_pages", mod.Memory().Size()/65536))
	return guest, nil
}

// settle polls the export table until every declared operation is
// published or the settle timeout elapses. Returns the names still
// missing at the deadline.
func (e *Engine) settle(ctx context.Context, mod api.Module, sigs map[string]*funcSignature) []string {
	deadline := time.Now().Add(e.cfg.SettleTimeout)
	for {
		missing := missingExports(mod, sigs)
		if len(missing) == 0 {
			return nil
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return missing
		}
		time.Sleep(settlePollInterval)
	}
}

func missingExports(mod api.Module, sigs map[string]*funcSignature) []string {
	var missing []string
	for name := range sigs {
		if mod.ExportedFunction(name) == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// checkSignatures verifies each published export lowers to the core
// shape the WIT surface declares.
func checkSignatures(mod api.Module, sigs map[string]*funcSignature) error {
	for name, sig := range sigs {
		def, ok := mod.ExportedFunctionDefinitions()[name]
		if !ok {
			continue // settle already verified presence
		}
		if got, want := len(def.ParamTypes()), flatParamCount(sig); got != want {
			return errors.InvalidInput(errors.PhaseLoad,
				"export "+name+" has wrong core signature")
		}
	}
	return nil
}

// LoadFile reads a compiled module from disk and returns a running guest
// inside its own fresh engine. Closing the returned surface also
// releases the engine.
func LoadFile(ctx context.Context, path string, cfg *Config) (playground.Surface, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	e, err := NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	guest, err := e.Load(ctx, wasmBytes)
	if err != nil {
		e.Close(ctx)
		return nil, err
	}

	guest.owner = e
	return guest, nil
}

package host

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/invoke"
	"github.com/wippyai/trigger-call/value"
)

// Config holds runtime configuration.
type Config struct {
	// MemoryLimitPages caps the linear memory of every instance
	// (64 KiB pages). Zero keeps the wazero default.
	MemoryLimitPages uint32
}

// Export is one callable export of a registered component.
type Export struct {
	Name string
	Type value.FuncType
}

// Runtime hosts core wasm modules that follow the canonical ABI and
// implements invoke.Host over them. Each registered component is compiled
// on first use and instantiated once; the instance is replaced if it is
// closed by a cancelled call.
type Runtime struct {
	runtime    wazero.Runtime
	components map[string]*component
	group      singleflight.Group
	mu         sync.Mutex
}

type component struct {
	compiled wazero.CompiledModule
	inst     *instance
	sigs     map[string]value.FuncType
	id       string
	wasm     []byte
}

// NewRuntime creates a runtime. A nil cfg uses defaults.
func NewRuntime(ctx context.Context, cfg *Config) *Runtime {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Runtime{
		runtime:    wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		components: make(map[string]*component),
	}
}

// Register adds a component under id. signatures lists the exports that
// may be called and their declared types.
func (r *Runtime) Register(id string, wasm []byte, signatures map[string]value.FuncType) error {
	if id == "" {
		return errors.InvalidInput(errors.PhaseLoad, "component id is empty")
	}
	if len(wasm) == 0 {
		return errors.InvalidInput(errors.PhaseLoad, "component "+id+" has no code")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[id]; ok {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("component %q already registered", id).
			Build()
	}
	r.components[id] = &component{id: id, wasm: wasm, sigs: signatures}
	Logger().Debug("component registered",
		zap.String("component", id),
		zap.Int("bytes", len(wasm)),
		zap.Int("exports", len(signatures)))
	return nil
}

func (r *Runtime) lookup(id string) (*component, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.components[id]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "component", id)
	}
	return c, nil
}

// Exports lists the declared exports of a component sorted by name.
func (r *Runtime) Exports(id string) ([]Export, error) {
	c, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]Export, 0, len(c.sigs))
	for name, ft := range c.sigs {
		out = append(out, Export{Name: name, Type: ft})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FuncType returns the declared signature of an export.
func (r *Runtime) FuncType(componentID, name string) (value.FuncType, error) {
	c, err := r.lookup(componentID)
	if err != nil {
		return value.FuncType{}, err
	}
	ft, ok := c.sigs[name]
	if !ok {
		return value.FuncType{}, errors.NotFound(errors.PhaseResolve, "export", name)
	}
	return ft, nil
}

// Handle prepares the component instance and looks up the export.
func (r *Runtime) Handle(ctx context.Context, componentID, name string) (invoke.Handle, error) {
	ft, err := r.FuncType(componentID, name)
	if err != nil {
		return nil, err
	}
	inst, err := r.prepare(ctx, componentID)
	if err != nil {
		return nil, err
	}
	return inst.handle(name, ft)
}

// prepare returns the live instance of a component, compiling and
// instantiating it when needed. Concurrent callers share one preparation.
func (r *Runtime) prepare(ctx context.Context, id string) (*instance, error) {
	c, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	inst := c.inst
	r.mu.Unlock()
	if inst != nil && !inst.closed() {
		return inst, nil
	}

	v, err, _ := r.group.Do(id, func() (any, error) {
		r.mu.Lock()
		compiled, inst := c.compiled, c.inst
		r.mu.Unlock()
		if inst != nil && !inst.closed() {
			return inst, nil
		}

		var err error
		if compiled == nil {
			compiled, err = r.runtime.CompileModule(ctx, c.wasm)
			if err != nil {
				return nil, errors.Load("compile component "+id, err)
			}
			Logger().Debug("component compiled", zap.String("component", id))
		}

		mod, err := r.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
		if err != nil {
			return nil, errors.New(errors.PhaseInvoke, errors.KindHostFailure).
				Detail("prepare instance of %q", id).
				Cause(err).
				Build()
		}
		inst = newInstance(id, mod)
		Logger().Debug("instance prepared", zap.String("component", id))

		r.mu.Lock()
		c.compiled, c.inst = compiled, inst
		r.mu.Unlock()
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*instance), nil
}

// Call invokes the export behind h and writes every result slot.
func (r *Runtime) Call(ctx context.Context, h invoke.Handle, args []value.Value, results *invoke.Results) error {
	fh, ok := h.(*funcHandle)
	if !ok {
		return errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
			Detail("handle %T was not issued by this runtime", h).
			Build()
	}
	return fh.inst.call(ctx, fh, args, results)
}

// Close releases every instance and compiled module.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	r.components = make(map[string]*component)
	r.mu.Unlock()
	return r.runtime.Close(ctx)
}

var _ invoke.Host = (*Runtime)(nil)
